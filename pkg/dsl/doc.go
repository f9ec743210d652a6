/*
Package dsl provides a fluent Go builder for decision trees.

It is an alternative to CSV or SQLite tables when the tree is defined in code, e.g. in
unit tests or small embedded flows. The result is a ports.TableSource, so it loads through
the same validation as any other source.

Example usage:

	b := dsl.New()

	b.Question("1", "Do you have a fever?").
		Answer("Yes", dsl.Q("2")).
		Answer("No", dsl.P("1"))

	b.Question("2", "Is it above 39°C?").
		Answer("Yes", dsl.P("2")).
		Answer("No", dsl.P("1"))

	b.Prompt("1", "Rest at home").Action("Drink fluids and monitor symptoms.")
	b.Prompt("2", "See a doctor").Action("Call your GP today.")

	src, err := b.Build()
	// ... pass src to triage.New(ctx, src)
*/
package dsl
