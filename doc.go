/*
Package triage walks a medical decision tree one question at a time.

The tree is two tables: questions, each offering an ordered list of answers paired with
the step they lead to, and prompts, the terminal recommendations. A step is addressed as
"question:<id>" or "prompt:<id>". The engine keeps no session state of its own: every
operation takes a *domain.State and returns the next one, and displays through a
ports.Presenter supplied by the host (terminal, web page, MCP client).

# Usage

	eng, err := triage.Open(ctx, "questions.csv", "prompts.csv")
	if err != nil {
		log.Fatal(err)
	}

	rec := &runner.Recorder{}
	state, err := eng.Start(ctx, "patient-1", rec)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(rec.Question.Label, rec.Question.Answers)

	state, err = eng.Answer(ctx, state, "Yes", rec)
	if errors.Is(err, domain.ErrInvalidAnswer) {
		// state is unchanged; ask again
	}

An answer the question does not offer, or a next step that is not a valid reference,
leaves the session where it was. A reference to a node that does not exist fails the
session when it is entered; Restart returns to the entry step from any phase.
*/
package triage
