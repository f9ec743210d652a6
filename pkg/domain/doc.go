/*
Package domain contains the core domain models of the triage decision-tree walker.

It defines the records loaded from tabular data (question and prompt nodes), the tagged
references that address them, and the per-session State owned by the step controller.
This package is kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - QuestionNode: a node offering an ordered set of answers, each paired with a next step.
  - PromptNode: a terminal outcome node; reaching it halts automatic advancement.
  - StepRef: a tagged (kind, id) pair in the textual form "kind:id".
  - State: the snapshot of a single session (current step, phase, visited path).
  - QuestionView / PromptView: what the host is asked to display.
*/
package domain
