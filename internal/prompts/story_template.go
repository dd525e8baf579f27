package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"LoveStory/server/internal/models"
)

// Template names
const (
	TemplateContinuation = "turn_continuation"
	TemplateStart        = "turn_start"
	TemplateReminder     = "turn_reminder"
	TemplatePreferences  = "turn_preferences"
	TemplateExtraction   = "character_extraction"
)

// Turn branches
const (
	BranchStart        = "start"
	BranchContinuation = "continuation"
)

// ErrUnresolvedVariable is returned when a template references an unknown variable.
var ErrUnresolvedVariable = errors.New("unresolved template variable")

var varRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// TemplateEngine manages prompt templates
type TemplateEngine struct {
	templates map[string]*Template
	mu        sync.RWMutex
}

// Template represents a prompt template with variables
type Template struct {
	Name        string   `json:"name"`
	Content     string   `json:"content"`
	Variables   []string `json:"variables"`
	Description string   `json:"description"`
}

// TemplateContext holds variables for template rendering
type TemplateContext struct {
	// Story state
	Summary     string
	Gender      string
	Location    string
	StoryLength string
	Indicators  string

	// Player choice
	ChoiceText   string
	ChoiceIntent string

	// Soul preferences
	Likes       string
	Dislikes    string
	Description string

	// Character extraction
	Story string
	Files string

	Custom map[string]string
}

// Prompt is the pair of messages sent to the provider.
type Prompt struct {
	System string
	User   string
}

// TurnPrompt is a narrative prompt plus the branch it was built for.
type TurnPrompt struct {
	Prompt
	Branch string
}

// NewTemplateEngine creates a template engine with the default templates registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	for _, tmpl := range defaultTemplates() {
		e.RegisterTemplate(tmpl)
	}
	return e
}

// RegisterTemplate registers a template, replacing any with the same name.
func (e *TemplateEngine) RegisterTemplate(tmpl *Template) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(tmpl.Variables) == 0 {
		tmpl.Variables = ParseTemplateVariables(tmpl.Content)
	}
	e.templates[tmpl.Name] = tmpl
}

// GetTemplate retrieves a template by name
func (e *TemplateEngine) GetTemplate(name string) (*Template, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tmpl, ok := e.templates[name]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", name)
	}
	return tmpl, nil
}

// Render renders a template with the given context. Substituted values are
// not rescanned, so player text containing {{...}} is left alone.
func (e *TemplateEngine) Render(templateName string, ctx *TemplateContext) (string, error) {
	tmpl, err := e.GetTemplate(templateName)
	if err != nil {
		return "", err
	}

	var missing []string
	result := varRegex.ReplaceAllStringFunc(tmpl.Content, func(match string) string {
		varName := varRegex.FindStringSubmatch(match)[1]
		value, ok := ctx.lookup(varName)
		if !ok {
			missing = append(missing, varName)
			return match
		}
		return value
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w in %s: %s", ErrUnresolvedVariable, templateName, strings.Join(missing, ", "))
	}

	return result, nil
}

func (ctx *TemplateContext) lookup(varName string) (string, bool) {
	switch varName {
	case "summary":
		return ctx.Summary, true
	case "gender":
		return ctx.Gender, true
	case "location":
		return ctx.Location, true
	case "story_length":
		return ctx.StoryLength, true
	case "indicators":
		return ctx.Indicators, true
	case "choice_text":
		return ctx.ChoiceText, true
	case "choice_intent":
		return ctx.ChoiceIntent, true
	case "likes":
		return ctx.Likes, true
	case "dislikes":
		return ctx.Dislikes, true
	case "description":
		return ctx.Description, true
	case "story":
		return ctx.Story, true
	case "files":
		return ctx.Files, true
	default:
		if ctx.Custom != nil {
			if val, ok := ctx.Custom[varName]; ok {
				return val, true
			}
		}
		return "", false
	}
}

// BuildTurnPrompt assembles the narrative prompt for a turn request.
// It does not touch the network and depends only on the request.
func (e *TemplateEngine) BuildTurnPrompt(req *models.TurnRequest) (*TurnPrompt, error) {
	ctx, err := NewTurnContext(req)
	if err != nil {
		return nil, err
	}

	branch, branchTemplate := BranchStart, TemplateStart
	if req.IsContinuation() {
		branch, branchTemplate = BranchContinuation, TemplateContinuation
	}

	sections := []string{branchTemplate, TemplateReminder}
	if req.UserPreferences.HasAny() {
		sections = append(sections, TemplatePreferences)
	}

	parts := make([]string, 0, len(sections))
	for _, name := range sections {
		text, err := e.Render(name, ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", name, err)
		}
		parts = append(parts, strings.TrimSpace(text))
	}

	return &TurnPrompt{
		Prompt: Prompt{
			System: NarrativeSystemPrompt,
			User:   strings.Join(parts, "\n\n"),
		},
		Branch: branch,
	}, nil
}

// BuildExtractionPrompt assembles the character extraction prompt.
func (e *TemplateEngine) BuildExtractionPrompt(req *models.ExtractionRequest) (*Prompt, error) {
	files := req.Files
	if files == nil {
		files = []string{}
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal files: %w", err)
	}

	user, err := e.Render(TemplateExtraction, &TemplateContext{
		Story: req.Story,
		Files: string(filesJSON),
	})
	if err != nil {
		return nil, err
	}

	return &Prompt{
		System: ExtractionSystemPrompt,
		User:   strings.TrimSpace(user),
	}, nil
}

// NewTurnContext maps a turn request onto template variables.
func NewTurnContext(req *models.TurnRequest) (*TemplateContext, error) {
	indicators := "{}"
	if len(req.Indicators) > 0 {
		data, err := json.Marshal(req.Indicators)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal indicators: %w", err)
		}
		indicators = string(data)
	}

	ctx := &TemplateContext{
		Summary:     strings.TrimSpace(req.SummaryOfPrevious),
		Gender:      req.UserGender,
		Location:    req.Location(),
		StoryLength: string(req.StoryLength),
		Indicators:  indicators,
		Likes:       "none",
		Dislikes:    "none",
		Description: "none",
	}

	if req.ChosenOption != nil {
		ctx.ChoiceText = req.ChosenOption.Text
		ctx.ChoiceIntent = req.ChosenOption.Intent
		if ctx.ChoiceIntent == "" {
			ctx.ChoiceIntent = "unspecified"
		}
	}

	if prefs := req.UserPreferences; prefs != nil {
		if likes := models.NonBlank(prefs.Likes); len(likes) > 0 {
			ctx.Likes = strings.Join(likes, ", ")
		}
		if dislikes := models.NonBlank(prefs.Dislikes); len(dislikes) > 0 {
			ctx.Dislikes = strings.Join(dislikes, ", ")
		}
		if desc := strings.TrimSpace(prefs.Description); desc != "" {
			ctx.Description = desc
		}
	}

	return ctx, nil
}

// ParseTemplateVariables extracts variables from a template
func ParseTemplateVariables(templateContent string) []string {
	matches := varRegex.FindAllStringSubmatch(templateContent, -1)

	seen := make(map[string]bool)
	vars := make([]string, 0, len(matches))
	for _, match := range matches {
		if len(match) > 1 && !seen[match[1]] {
			seen[match[1]] = true
			vars = append(vars, match[1])
		}
	}

	return vars
}

func defaultTemplates() []*Template {
	return []*Template{
		{
			Name:        TemplateContinuation,
			Description: "Continue the story from the player's latest choice",
			Content: `STORY CONTEXT (key facts to remember):
{{summary}}

CURRENT LOCATION: {{location}}
PLAYER'S LATEST CHOICE: "{{choice_text}}" (Intent: {{choice_intent}})

LOCATION RULE: The scene stays in {{location}}. Only move if the choice clearly requires travel.
If it does, describe the journey in the story text (how they get there and how long it takes),
and set "location_name" to the place where the segment ends.

TASK: Continue the story directly from this choice.
1. Acknowledge and resolve the player's action immediately.
2. Push the narrative forward with tension or emotion. Do not repeat earlier beats.
3. Present 2-4 NEW options (max 10 words each).`,
		},
		{
			Name:        TemplateStart,
			Description: "Open a new story from a premise",
			Content: `START NEW STORY.
PLAYER GENDER: {{gender}}
Initial Premise: {{summary}}

TASK: Start the story based on this premise, anchored in the player's perspective.
Establish where the scene takes place and put that place in "location_name".
THEN: Present EXACTLY 4 options (max 10 words each).`,
		},
		{
			Name:        TemplateReminder,
			Description: "Restated on every turn",
			Content: `REMINDER: The player is {{gender}}. Maintain this perspective.
STORY LENGTH: {{story_length}}. Pace the ending accordingly.
BEHAVIOURAL INDICATORS: {{indicators}}`,
		},
		{
			Name:        TemplatePreferences,
			Description: "Player soul preferences",
			Content: `SOUL PREFERENCES (what the player told us about themselves):
- Likes: {{likes}}
- Dislikes: {{dislikes}}
- Bio: {{description}}

MEMORY RULE: When the scene touches one of these likes or dislikes, an NPC must explicitly show
they remember it. Example: if the player dislikes coffee and the scene is in a cafe, the NPC says
"I ordered you a tea, I remember you hate coffee." Do not force it when it is not relevant.`,
		},
		{
			Name:        TemplateExtraction,
			Description: "Identify active characters and match portrait files",
			Content: `Given the following story segment and a list of available character image filenames, identify the active characters and map them to the best matching filename.

Story: {{story}}
Available Files: {{files}}

OUTPUT FORMAT (STRICT JSON ONLY):
{
  "characters": [
    { "id": "unique_id", "name": "Character Name", "role": "Description", "image": "filename.png" }
  ]
}`,
		},
	}
}
