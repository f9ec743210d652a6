package domain

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrDataFormat matches every *DataFormatError.
	ErrDataFormat = errors.New("malformed decision data")

	// ErrUnknownStep matches every *UnknownStepError.
	ErrUnknownStep = errors.New("unknown step")

	// ErrInvalidAnswer matches every *InvalidAnswerError.
	ErrInvalidAnswer = errors.New("invalid answer")

	// ErrMalformedReference matches every *MalformedReferenceError.
	ErrMalformedReference = errors.New("malformed step reference")

	// ErrNotAwaitingAnswer is returned when an answer arrives while no question is pending.
	ErrNotAwaitingAnswer = errors.New("session is not awaiting an answer")

	// ErrSessionNotFound is returned when a session ID cannot be found in the store.
	ErrSessionNotFound = errors.New("session not found")
)

// DataFormatError reports source data that cannot be turned into node records.
// It is fatal to startup.
type DataFormatError struct {
	Table  string
	Row    int // 1-based data row, 0 when the error concerns the whole table
	Field  string
	Reason string
	Err    error
}

func (e *DataFormatError) Error() string {
	msg := "malformed " + e.Table
	if e.Row > 0 {
		msg += " row " + strconv.Itoa(e.Row)
	}
	if e.Field != "" {
		msg += " field " + strconv.Quote(e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataFormatError) Is(target error) bool { return target == ErrDataFormat }

func (e *DataFormatError) Unwrap() error { return e.Err }

// UnknownStepError reports a reference to a node that does not exist.
type UnknownStepError struct {
	Ref StepRef
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Ref.Kind, strconv.Quote(e.Ref.ID))
}

func (e *UnknownStepError) Is(target error) bool { return target == ErrUnknownStep }

// InvalidAnswerError reports a selection the question never offered.
type InvalidAnswerError struct {
	QuestionID string
	Answer     string
	Offered    []string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("answer %s is not offered by question %s (offered: %q)",
		strconv.Quote(e.Answer), strconv.Quote(e.QuestionID), e.Offered)
}

func (e *InvalidAnswerError) Is(target error) bool { return target == ErrInvalidAnswer }

// MalformedReferenceError reports a step string that is not "question:<id>" or "prompt:<id>".
type MalformedReferenceError struct {
	Raw    string
	Reason string
}

func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("malformed step reference %s: %s", strconv.Quote(e.Raw), e.Reason)
}

func (e *MalformedReferenceError) Is(target error) bool { return target == ErrMalformedReference }

// ErrorKind returns a short stable label for the error taxonomy, used for metrics and
// API payloads. Unclassified errors report "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataFormat):
		return "data_format"
	case errors.Is(err, ErrUnknownStep):
		return "unknown_step"
	case errors.Is(err, ErrInvalidAnswer):
		return "invalid_answer"
	case errors.Is(err, ErrMalformedReference):
		return "malformed_reference"
	case errors.Is(err, ErrNotAwaitingAnswer):
		return "not_awaiting_answer"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	default:
		return "internal"
	}
}
