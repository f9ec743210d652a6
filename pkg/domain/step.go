package domain

import (
	"strconv"
	"strings"
)

// StepKind tags which node table a StepRef indexes into.
type StepKind string

const (
	KindQuestion StepKind = "question"
	KindPrompt   StepKind = "prompt"
)

// DefaultEntryRef is where new and restarted sessions begin.
var DefaultEntryRef = StepRef{Kind: KindQuestion, ID: "1"}

// StepRef addresses a node. Its textual form is "kind:id".
type StepRef struct {
	Kind StepKind
	ID   string
}

// ParseStepRef splits a "kind:id" string. It fails with *MalformedReferenceError when
// the separator is missing, the kind is not recognized, or the id is empty or contains
// another separator.
func ParseStepRef(raw string) (StepRef, error) {
	kind, id, ok := strings.Cut(raw, ":")
	if !ok {
		return StepRef{}, &MalformedReferenceError{Raw: raw, Reason: "missing ':' separator"}
	}
	switch StepKind(kind) {
	case KindQuestion, KindPrompt:
	default:
		return StepRef{}, &MalformedReferenceError{Raw: raw, Reason: "unknown kind " + strconv.Quote(kind)}
	}
	if id == "" {
		return StepRef{}, &MalformedReferenceError{Raw: raw, Reason: "empty id"}
	}
	if strings.Contains(id, ":") {
		return StepRef{}, &MalformedReferenceError{Raw: raw, Reason: "id contains ':'"}
	}
	return StepRef{Kind: StepKind(kind), ID: id}, nil
}

// String returns the textual form.
func (r StepRef) String() string {
	if r.IsZero() {
		return ""
	}
	return string(r.Kind) + ":" + r.ID
}

// IsZero reports whether r is the empty reference.
func (r StepRef) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

// MarshalText encodes r as "kind:id" so states serialize compactly.
func (r StepRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses "kind:id". An empty value decodes to the zero reference.
func (r *StepRef) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*r = StepRef{}
		return nil
	}
	ref, err := ParseStepRef(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
