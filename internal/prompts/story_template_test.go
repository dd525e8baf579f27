package prompts

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LoveStory/server/internal/models"
)

func newRequest() *models.TurnRequest {
	req := &models.TurnRequest{
		SummaryOfPrevious: "A clumsy goblin drinks a potion in a dragon's lair.",
	}
	req.ApplyDefaults()
	return req
}

func TestBuildTurnPrompt_StartBranch(t *testing.T) {
	engine := NewTemplateEngine()
	req := newRequest()
	req.UserGender = "female"

	prompt, err := engine.BuildTurnPrompt(req)
	require.NoError(t, err)

	assert.Equal(t, BranchStart, prompt.Branch)
	assert.Equal(t, NarrativeSystemPrompt, prompt.System)
	assert.Contains(t, prompt.User, "START NEW STORY.")
	assert.Contains(t, prompt.User, "PLAYER GENDER: female")
	assert.Contains(t, prompt.User, "Initial Premise: A clumsy goblin")
	assert.Contains(t, prompt.User, "EXACTLY 4 options")
	assert.Contains(t, prompt.User, "REMINDER: The player is female.")
	assert.Contains(t, prompt.User, "STORY LENGTH: medium")
	assert.Contains(t, prompt.User, "BEHAVIOURAL INDICATORS: {}")
	assert.NotContains(t, prompt.User, "PLAYER'S LATEST CHOICE")
	assert.NotContains(t, prompt.User, "SOUL PREFERENCES")
	assert.NotContains(t, prompt.User, "{{")
}

func TestBuildTurnPrompt_ContinuationBranch(t *testing.T) {
	engine := NewTemplateEngine()
	req := newRequest()
	req.ChosenOption = &models.ChosenOption{ID: "B", Text: "Offer the dragon tea", Intent: "humor"}
	req.StoryLength = models.StoryShort
	req.Indicators = map[string]interface{}{
		"total_scenes":             float64(4),
		"consecutive_intent_count": float64(2),
		"last_intent":              "humor",
	}

	prompt, err := engine.BuildTurnPrompt(req)
	require.NoError(t, err)

	assert.Equal(t, BranchContinuation, prompt.Branch)
	assert.Contains(t, prompt.User, "CURRENT LOCATION: Starting Point")
	assert.Contains(t, prompt.User, `PLAYER'S LATEST CHOICE: "Offer the dragon tea" (Intent: humor)`)
	assert.Contains(t, prompt.User, "Only move if the choice clearly requires travel")
	assert.Contains(t, prompt.User, "describe the journey")
	assert.Contains(t, prompt.User, "2-4 NEW options")
	assert.Contains(t, prompt.User, "STORY LENGTH: short")
	assert.Contains(t, prompt.User,
		`BEHAVIOURAL INDICATORS: {"consecutive_intent_count":2,"last_intent":"humor","total_scenes":4}`)
	assert.NotContains(t, prompt.User, "START NEW STORY")
}

func TestBuildTurnPrompt_UsesCurrentLocation(t *testing.T) {
	engine := NewTemplateEngine()
	req := newRequest()
	req.CurrentLocation = "  Rooftop Garden "
	req.ChosenOption = &models.ChosenOption{Text: "Look at the skyline"}

	prompt, err := engine.BuildTurnPrompt(req)
	require.NoError(t, err)

	assert.Contains(t, prompt.User, "CURRENT LOCATION: Rooftop Garden")
	assert.Contains(t, prompt.User, "The scene stays in Rooftop Garden.")
	assert.Contains(t, prompt.User, "(Intent: unspecified)")
}

func TestBuildTurnPrompt_Preferences(t *testing.T) {
	engine := NewTemplateEngine()
	req := newRequest()
	req.UserPreferences = &models.UserPreferences{
		Likes:    []string{"jazz", " ", "rainy nights"},
		Dislikes: []string{"coffee"},
	}

	prompt, err := engine.BuildTurnPrompt(req)
	require.NoError(t, err)

	assert.Contains(t, prompt.User, "SOUL PREFERENCES")
	assert.Contains(t, prompt.User, "- Likes: jazz, rainy nights")
	assert.Contains(t, prompt.User, "- Dislikes: coffee")
	assert.Contains(t, prompt.User, "- Bio: none")
	assert.Contains(t, prompt.User, "I remember you hate coffee")
	assert.True(t, strings.Index(prompt.User, "REMINDER") < strings.Index(prompt.User, "SOUL PREFERENCES"))
}

func TestBuildTurnPrompt_BlankPreferencesAreSkipped(t *testing.T) {
	engine := NewTemplateEngine()
	req := newRequest()
	req.UserPreferences = &models.UserPreferences{Likes: []string{""}, Description: "   "}

	prompt, err := engine.BuildTurnPrompt(req)
	require.NoError(t, err)
	assert.NotContains(t, prompt.User, "SOUL PREFERENCES")
}

func TestBuildTurnPrompt_PlayerTextIsNotRescanned(t *testing.T) {
	engine := NewTemplateEngine()
	req := newRequest()
	req.ChosenOption = &models.ChosenOption{Text: "Say {{gender}} out loud"}

	prompt, err := engine.BuildTurnPrompt(req)
	require.NoError(t, err)
	assert.Contains(t, prompt.User, `"Say {{gender}} out loud"`)
}

func TestBuildTurnPrompt_UnserialisableIndicators(t *testing.T) {
	engine := NewTemplateEngine()
	req := newRequest()
	req.Indicators = map[string]interface{}{"bad": make(chan int)}

	_, err := engine.BuildTurnPrompt(req)
	assert.ErrorContains(t, err, "failed to marshal indicators")
}

func TestBuildExtractionPrompt(t *testing.T) {
	engine := NewTemplateEngine()

	prompt, err := engine.BuildExtractionPrompt(&models.ExtractionRequest{
		Story: "Mom waves from the porch while the officer frowns.",
		Files: []string{"mom_a.png", "officer.png"},
	})
	require.NoError(t, err)

	assert.Equal(t, ExtractionSystemPrompt, prompt.System)
	assert.Contains(t, prompt.User, "Story: Mom waves from the porch")
	assert.Contains(t, prompt.User, `Available Files: ["mom_a.png","officer.png"]`)
	assert.Contains(t, prompt.User, `"characters"`)
}

func TestBuildExtractionPrompt_NilFiles(t *testing.T) {
	prompt, err := NewTemplateEngine().BuildExtractionPrompt(&models.ExtractionRequest{Story: "x"})
	require.NoError(t, err)
	assert.Contains(t, prompt.User, "Available Files: []")
}

func TestRender_UnknownVariable(t *testing.T) {
	engine := NewTemplateEngine()
	engine.RegisterTemplate(&Template{Name: "broken", Content: "Hello {{nobody}}"})

	_, err := engine.Render("broken", &TemplateContext{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolvedVariable))
}

func TestRender_CustomVariable(t *testing.T) {
	engine := NewTemplateEngine()
	engine.RegisterTemplate(&Template{Name: "custom", Content: "Weather: {{weather}}"})

	out, err := engine.Render("custom", &TemplateContext{Custom: map[string]string{"weather": "storm"}})
	require.NoError(t, err)
	assert.Equal(t, "Weather: storm", out)
}

func TestParseTemplateVariables(t *testing.T) {
	vars := ParseTemplateVariables("{{a}} {{b}} {{a}} {single}")
	assert.Equal(t, []string{"a", "b"}, vars)
}
