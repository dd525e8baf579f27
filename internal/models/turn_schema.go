package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	MaxOptions = 4

	DefaultMood      = "Mysterious"
	DefaultStat      = 50
	DefaultPlace     = "Somewhere"
	DefaultTimeOfDay = "Unknown"
	DefaultIntent    = "tension"
)

// ErrMalformedTurn is returned when model output cannot be used as a TurnResponse.
var ErrMalformedTurn = errors.New("malformed turn payload")

type rawTurn struct {
	Story        *string     `json:"story"`
	Mood         *string     `json:"mood"`
	Tension      *float64    `json:"tension"`
	Trust        *float64    `json:"trust"`
	LocationName *string     `json:"location_name"`
	TimeOfDay    *string     `json:"time_of_day"`
	IsEnding     *bool       `json:"is_ending"`
	Options      []rawOption `json:"options"`
	Error        *string     `json:"error"`
}

// rawOption accepts either an option object or a bare string.
type rawOption StoryOption

func (o *rawOption) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*o = rawOption{Text: text}
		return nil
	}
	var opt StoryOption
	if err := json.Unmarshal(data, &opt); err != nil {
		return err
	}
	*o = rawOption(opt)
	return nil
}

// ParseTurnResponse decodes model output with the strict turn schema.
// Required: a non-empty story and at least one option with text.
// Everything else is defaulted; fallbackLocation replaces a missing location_name.
func ParseTurnResponse(content string, fallbackLocation string) (*TurnResponse, error) {
	var raw rawTurn
	if err := json.Unmarshal([]byte(StripCodeFence(content)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTurn, err)
	}

	if raw.Story == nil || strings.TrimSpace(*raw.Story) == "" {
		return nil, fmt.Errorf("%w: story is missing", ErrMalformedTurn)
	}

	options := make([]StoryOption, 0, MaxOptions)
	for _, opt := range raw.Options {
		text := strings.TrimSpace(opt.Text)
		if text == "" {
			continue
		}
		if len(options) == MaxOptions {
			break
		}
		id := strings.TrimSpace(opt.ID)
		if id == "" {
			id = string(rune('A' + len(options)))
		}
		intent := strings.TrimSpace(opt.Intent)
		if intent == "" {
			intent = DefaultIntent
		}
		options = append(options, StoryOption{ID: id, Text: text, Intent: intent})
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("%w: no usable options", ErrMalformedTurn)
	}

	if strings.TrimSpace(fallbackLocation) == "" {
		fallbackLocation = DefaultPlace
	}

	resp := &TurnResponse{
		Story:        strings.TrimSpace(*raw.Story),
		Mood:         stringOr(raw.Mood, DefaultMood),
		Tension:      statOr(raw.Tension),
		Trust:        statOr(raw.Trust),
		LocationName: stringOr(raw.LocationName, fallbackLocation),
		TimeOfDay:    stringOr(raw.TimeOfDay, DefaultTimeOfDay),
		Options:      options,
		Error:        stringOr(raw.Error, ""),
	}
	if raw.IsEnding != nil {
		resp.IsEnding = *raw.IsEnding
	}

	return resp, nil
}

// StripCodeFence removes a markdown code fence the model sometimes wraps JSON in.
func StripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ClampStat bounds a meter value to 0..100.
func ClampStat(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func statOr(v *float64) int {
	if v == nil || math.IsNaN(*v) {
		return DefaultStat
	}
	clamped := math.Min(math.Max(*v, 0), 100)
	return int(math.Round(clamped))
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	if s := strings.TrimSpace(*v); s != "" {
		return s
	}
	return def
}
