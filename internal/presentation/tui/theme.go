package tui

import (
	"github.com/aretw0/triage/pkg/runner"
	"github.com/muesli/termenv"
)

// Bubble colors shared with the web page.
const (
	QuestionColor = "#E0E0E0"
	PromptColor   = "#B3E5FC"
)

// NewTheme returns chat-bubble styling for the text handler: questions on grey, prompts
// on blue. On a terminal without color support the text is left unchanged.
func NewTheme(profile termenv.Profile) runner.Theme {
	if profile == termenv.Ascii {
		return runner.Theme{}
	}
	bubble := func(bg string) func(string) string {
		return func(s string) string {
			return profile.String(" " + s + " ").
				Foreground(profile.Color("#000000")).
				Background(profile.Color(bg)).
				String()
		}
	}
	return runner.Theme{
		Question: bubble(QuestionColor),
		Prompt:   bubble(PromptColor),
		Error: func(s string) string {
			return profile.String(s).Foreground(profile.Color("#ef5350")).String()
		},
		System: func(s string) string {
			return profile.String(s).Faint().String()
		},
	}
}
