package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// StoryLength is the pacing target chosen by the player.
type StoryLength string

const (
	StoryShort  StoryLength = "short"
	StoryMedium StoryLength = "medium"
	StoryLong   StoryLength = "long"
)

const (
	DefaultGender      = "male"
	DefaultStoryLength = StoryMedium
	DefaultLocation    = "Starting Point"
)

var validate = validator.New()

// ErrInvalidTurn is returned when a decoded turn request fails validation.
var ErrInvalidTurn = errors.New("invalid turn request")

// TurnRequest is the story state the client resends on every turn.
type TurnRequest struct {
	SummaryOfPrevious string                 `json:"summary_of_previous"`
	UserGender        string                 `json:"user_gender"`
	ChosenOption      *ChosenOption          `json:"chosen_option,omitempty"`
	CurrentLocation   string                 `json:"current_location,omitempty"`
	Indicators        map[string]interface{} `json:"indicators,omitempty"`
	StoryLength       StoryLength            `json:"story_length" validate:"omitempty,oneof=short medium long"`
	UserPreferences   *UserPreferences       `json:"user_preferences,omitempty"`
}

// ChosenOption is the option the player picked (or typed) last turn.
type ChosenOption struct {
	ID     string `json:"id"`
	Text   string `json:"text" validate:"required"`
	Intent string `json:"intent"`
}

// UserPreferences is the player's "soul" profile.
type UserPreferences struct {
	Likes       []string `json:"likes"`
	Dislikes    []string `json:"dislikes"`
	Description string   `json:"description"`
}

// HasAny reports whether any preference field carries content.
func (p *UserPreferences) HasAny() bool {
	if p == nil {
		return false
	}
	return len(NonBlank(p.Likes)) > 0 ||
		len(NonBlank(p.Dislikes)) > 0 ||
		strings.TrimSpace(p.Description) != ""
}

// ApplyDefaults fills the fields the client may omit. An empty chosen_option
// object counts as absent, so the request starts a new story.
func (r *TurnRequest) ApplyDefaults() {
	if r.ChosenOption != nil && *r.ChosenOption == (ChosenOption{}) {
		r.ChosenOption = nil
	}
	if strings.TrimSpace(r.UserGender) == "" {
		r.UserGender = DefaultGender
	}
	if r.StoryLength == "" {
		r.StoryLength = DefaultStoryLength
	}
}

// Validate checks the request against its struct tags.
func (r *TurnRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTurn, err)
	}
	return nil
}

// IsContinuation reports whether the request continues an existing story.
func (r *TurnRequest) IsContinuation() bool {
	return r.ChosenOption != nil
}

// Location returns the current location or the default starting point.
func (r *TurnRequest) Location() string {
	if loc := strings.TrimSpace(r.CurrentLocation); loc != "" {
		return loc
	}
	return DefaultLocation
}

// StoryOption is one choice offered to the player.
type StoryOption struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Intent string `json:"intent"`
}

// TurnResponse is one narrative segment. Fallback payloads share this shape.
type TurnResponse struct {
	Story        string        `json:"story"`
	Mood         string        `json:"mood"`
	Tension      int           `json:"tension"`
	Trust        int           `json:"trust"`
	LocationName string        `json:"location_name"`
	TimeOfDay    string        `json:"time_of_day"`
	IsEnding     bool          `json:"is_ending"`
	Options      []StoryOption `json:"options"`
	Error        string        `json:"error,omitempty"`
}

// ExtractionRequest asks for the characters active in a story segment.
type ExtractionRequest struct {
	Story string   `json:"story"`
	Files []string `json:"files"`
}

// ExtractionResponse always serialises characters as an array. Each entry is
// passed through exactly as the model wrote it (usually id, name, role, image).
type ExtractionResponse struct {
	Characters []json.RawMessage `json:"characters"`
}

// EmptyExtraction is the result returned when nothing could be extracted.
func EmptyExtraction() *ExtractionResponse {
	return &ExtractionResponse{Characters: []json.RawMessage{}}
}

// NonBlank returns the trimmed, non-empty entries of items.
func NonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
