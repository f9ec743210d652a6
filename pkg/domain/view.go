package domain

// QuestionView is what the host displays for a question. Selecting Answers[i]
// is reported back verbatim.
type QuestionView struct {
	Ref     StepRef  `json:"ref"`
	Label   string   `json:"label"`
	Answers []string `json:"answers"`
}

// PromptView is what the host displays for a terminal prompt.
type PromptView struct {
	Ref    StepRef `json:"ref"`
	Label  string  `json:"label"`
	Action string  `json:"action,omitempty"`
}

// ViewOf builds the view for q.
func ViewOf(q QuestionNode) QuestionView {
	return QuestionView{
		Ref:     q.Ref(),
		Label:   q.Label,
		Answers: append([]string(nil), q.Answers...),
	}
}

// PromptViewOf builds the view for p.
func PromptViewOf(p PromptNode) PromptView {
	return PromptView{Ref: p.Ref(), Label: p.Label, Action: p.Action}
}
