package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"LoveStory/server/internal/interfaces"
	"LoveStory/server/internal/models"
)

const (
	maxBodyBytes = 1 << 20

	extractionStatusHeader = "X-Extraction-Status"
	extractionOK           = "ok"
	extractionFailed       = "failed"

	emptyCompletionDetail = "LLM failed to generate a response."
)

// ErrorResponse is the body of every non-200 answer.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// GenerateTurn handles POST /generate
func (h *Handlers) GenerateTurn(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	status, payload := h.generate(r.Context(), body)
	writeJSON(w, status, payload)
}

// ExtractCharacters handles POST /extract_characters. It always answers 200.
func (h *Handlers) ExtractCharacters(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("Failed to read extraction body", zap.Error(err))
		body = nil
	}

	resp, ok := h.extract(r.Context(), body)
	w.Header().Set(extractionStatusHeader, extractionStatus(ok))
	writeJSON(w, http.StatusOK, resp)
}

// generate decodes a turn request and runs it. Shared by HTTP and websocket.
func (h *Handlers) generate(ctx context.Context, body []byte) (int, interface{}) {
	var req models.TurnRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return http.StatusUnprocessableEntity, ErrorResponse{Detail: fmt.Sprintf("Invalid request body: %v", err)}
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()}
	}

	resp, err := h.turns.Generate(ctx, &req)
	if err != nil {
		if !errors.Is(err, interfaces.ErrEmptyCompletion) {
			h.logger.Error("Unexpected turn generation error", zap.Error(err))
		}
		return http.StatusInternalServerError, ErrorResponse{Detail: emptyCompletionDetail}
	}
	return http.StatusOK, resp
}

// extract never fails: undecodable bodies yield an empty list.
func (h *Handlers) extract(ctx context.Context, body []byte) (*models.ExtractionResponse, bool) {
	var req models.ExtractionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Warn("Invalid extraction body", zap.Error(err))
		return models.EmptyExtraction(), false
	}
	return h.characters.Extract(ctx, &req)
}

func extractionStatus(ok bool) string {
	if ok {
		return extractionOK
	}
	return extractionFailed
}
