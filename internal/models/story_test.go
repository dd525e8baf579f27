package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnRequest_ApplyDefaults(t *testing.T) {
	var req TurnRequest
	require.NoError(t, json.Unmarshal([]byte(`{"summary_of_previous":"A goblin drinks a potion."}`), &req))

	req.ApplyDefaults()

	assert.Equal(t, "male", req.UserGender)
	assert.Equal(t, StoryMedium, req.StoryLength)
	assert.False(t, req.IsContinuation())
	assert.Equal(t, "Starting Point", req.Location())
}

func TestTurnRequest_EmptyChosenOptionIsStart(t *testing.T) {
	var req TurnRequest
	require.NoError(t, json.Unmarshal([]byte(`{"summary_of_previous":"x","chosen_option":{}}`), &req))
	require.NotNil(t, req.ChosenOption)

	req.ApplyDefaults()

	assert.Nil(t, req.ChosenOption)
	assert.False(t, req.IsContinuation())
	assert.NoError(t, req.Validate())

	partial := TurnRequest{ChosenOption: &ChosenOption{ID: "A"}}
	partial.ApplyDefaults()
	assert.NotNil(t, partial.ChosenOption)
	assert.Error(t, partial.Validate())
}

func TestTurnRequest_Validate(t *testing.T) {
	t.Run("accepts known story length", func(t *testing.T) {
		req := TurnRequest{StoryLength: StoryLong}
		assert.NoError(t, req.Validate())
	})

	t.Run("rejects unknown story length", func(t *testing.T) {
		req := TurnRequest{StoryLength: "epic"}
		err := req.Validate()
		assert.True(t, errors.Is(err, ErrInvalidTurn))
	})

	t.Run("chosen option requires text", func(t *testing.T) {
		req := TurnRequest{StoryLength: StoryShort, ChosenOption: &ChosenOption{ID: "A"}}
		assert.Error(t, req.Validate())
	})

	t.Run("chosen option with text is valid", func(t *testing.T) {
		req := TurnRequest{StoryLength: StoryShort, ChosenOption: &ChosenOption{ID: "A", Text: "Run"}}
		assert.NoError(t, req.Validate())
	})
}

func TestUserPreferences_HasAny(t *testing.T) {
	var nilPrefs *UserPreferences
	assert.False(t, nilPrefs.HasAny())
	assert.False(t, (&UserPreferences{Likes: []string{" ", ""}}).HasAny())
	assert.True(t, (&UserPreferences{Dislikes: []string{"rain"}}).HasAny())
	assert.True(t, (&UserPreferences{Description: "Night owl"}).HasAny())
}

func TestParseTurnResponse_Complete(t *testing.T) {
	content := `{
		"story": "The rain hammers the bus stop roof.",
		"mood": "Tense - heavy air",
		"tension": 72,
		"trust": 40,
		"location_name": "Bus Stop",
		"time_of_day": "Midnight",
		"is_ending": false,
		"options": [
			{"id": "A", "text": "Share your umbrella", "intent": "romance"},
			{"id": "B", "text": "Walk away", "intent": "conflict"}
		]
	}`

	resp, err := ParseTurnResponse(content, "Cafe")
	require.NoError(t, err)

	assert.Equal(t, "The rain hammers the bus stop roof.", resp.Story)
	assert.Equal(t, 72, resp.Tension)
	assert.Equal(t, 40, resp.Trust)
	assert.Equal(t, "Bus Stop", resp.LocationName)
	assert.Len(t, resp.Options, 2)
	assert.Empty(t, resp.Error)
}

func TestParseTurnResponse_Defaults(t *testing.T) {
	content := "```json\n" + `{"story": "Quiet.", "tension": 140.6, "trust": -3, "options": ["Wait", {"text": "Leave"}, {"text": "  "}]}` + "\n```"

	resp, err := ParseTurnResponse(content, "Old Library")
	require.NoError(t, err)

	assert.Equal(t, DefaultMood, resp.Mood)
	assert.Equal(t, 100, resp.Tension)
	assert.Equal(t, 0, resp.Trust)
	assert.Equal(t, "Old Library", resp.LocationName)
	assert.Equal(t, DefaultTimeOfDay, resp.TimeOfDay)
	assert.Equal(t, []StoryOption{
		{ID: "A", Text: "Wait", Intent: DefaultIntent},
		{ID: "B", Text: "Leave", Intent: DefaultIntent},
	}, resp.Options)
}

func TestParseTurnResponse_TruncatesOptions(t *testing.T) {
	content := `{"story": "s", "options": [{"text":"1"},{"text":"2"},{"text":"3"},{"text":"4"},{"text":"5"}]}`

	resp, err := ParseTurnResponse(content, "")
	require.NoError(t, err)

	assert.Len(t, resp.Options, MaxOptions)
	assert.Equal(t, DefaultPlace, resp.LocationName)
	assert.Equal(t, DefaultStat, resp.Tension)
}

func TestParseTurnResponse_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":       "The story continues without braces",
		"missing story":  `{"options": [{"text": "Go"}]}`,
		"blank story":    `{"story": "  ", "options": [{"text": "Go"}]}`,
		"no options":     `{"story": "s"}`,
		"empty options":  `{"story": "s", "options": [{"text": ""}]}`,
		"wrong type":     `{"story": "s", "tension": "high", "options": [{"text": "Go"}]}`,
		"trailing junk":  `{"story": "s", "options": [{"text": "Go"}]} and more`,
		"options object": `{"story": "s", "options": {"A": "Go"}}`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTurnResponse(content, "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedTurn))
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFence("  {\"a\":1}  "))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```{\"a\":1}```"))
}

func TestEmptyExtraction_SerialisesArray(t *testing.T) {
	data, err := json.Marshal(EmptyExtraction())
	require.NoError(t, err)
	assert.JSONEq(t, `{"characters": []}`, string(data))
}
