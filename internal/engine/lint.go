package engine

import (
	"fmt"
	"strings"
	"unicode"

	"LoveStory/server/internal/models"
	"LoveStory/server/internal/prompts"
)

const maxOptionWords = 10

// Lint rule names, used as metric labels.
const (
	RuleOptionLength      = "option_length"
	RuleOptionCount       = "option_count"
	RuleBannedPhrase      = "banned_phrase"
	RuleRepeatedAdjective = "repeated_adjective"
)

// LintWarning is a style rule the model broke. Warnings never change the response.
type LintWarning struct {
	Rule   string
	Detail string
}

// adjectiveSuffixes is a rough filter for descriptive words.
var adjectiveSuffixes = []string{"ous", "ful", "less", "ive", "able", "ible", "ish", "ent", "ant", "ic", "al"}

// LintTurn checks a parsed turn against the style rules in the system prompt.
func LintTurn(resp *models.TurnResponse, branch string) []LintWarning {
	var warnings []LintWarning

	for _, opt := range resp.Options {
		if n := len(strings.Fields(opt.Text)); n > maxOptionWords {
			warnings = append(warnings, LintWarning{
				Rule:   RuleOptionLength,
				Detail: fmt.Sprintf("option %s has %d words", opt.ID, n),
			})
		}
	}

	minOpts, maxOpts := 2, models.MaxOptions
	if branch == prompts.BranchStart {
		minOpts = models.MaxOptions
	}
	if n := len(resp.Options); n < minOpts || n > maxOpts {
		warnings = append(warnings, LintWarning{
			Rule:   RuleOptionCount,
			Detail: fmt.Sprintf("%d options on %s branch", n, branch),
		})
	}

	lower := strings.ToLower(resp.Story)
	for _, phrase := range prompts.BannedPhrases {
		if strings.Contains(lower, phrase) {
			warnings = append(warnings, LintWarning{Rule: RuleBannedPhrase, Detail: phrase})
		}
	}

	for _, word := range repeatedAdjectives(lower) {
		warnings = append(warnings, LintWarning{Rule: RuleRepeatedAdjective, Detail: word})
	}

	return warnings
}

func repeatedAdjectives(text string) []string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})

	counts := make(map[string]int)
	var repeated []string
	for _, w := range words {
		if len(w) < 5 || !looksDescriptive(w) {
			continue
		}
		counts[w]++
		if counts[w] == 2 {
			repeated = append(repeated, w)
		}
	}
	return repeated
}

func looksDescriptive(word string) bool {
	for _, suffix := range adjectiveSuffixes {
		if strings.HasSuffix(word, suffix) {
			return true
		}
	}
	return false
}
