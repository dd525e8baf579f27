package engine

import (
	"LoveStory/server/internal/models"
)

const (
	degradedStory = "The story continues... (Error parsing narrative segment)"
	crisisStory   = "A strange mist clouds your vision. The path ahead is unclear."
)

// DegradedResponse is served when the provider answered but the content
// could not be used as a turn.
func DegradedResponse() *models.TurnResponse {
	return &models.TurnResponse{
		Story:        degradedStory,
		Mood:         models.DefaultMood,
		Tension:      models.DefaultStat,
		Trust:        models.DefaultStat,
		LocationName: models.DefaultPlace,
		TimeOfDay:    models.DefaultTimeOfDay,
		Options: []models.StoryOption{
			{ID: "A", Text: "Continue the journey.", Intent: models.DefaultIntent},
		},
	}
}

// CrisisResponse is served for any other failure. The error text goes to the client.
func CrisisResponse(err error) *models.TurnResponse {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &models.TurnResponse{
		Story:        crisisStory,
		Mood:         "Chaotic",
		Tension:      100,
		Trust:        0,
		LocationName: "The Void",
		TimeOfDay:    "Outside Time",
		Options: []models.StoryOption{
			{ID: "A", Text: "Blink and focus your eyes.", Intent: models.DefaultIntent},
		},
		Error: msg,
	}
}
