package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/triage/pkg/domain"
)

// Nodes lists the loaded records. *nodestore.Store implements it.
type Nodes interface {
	Questions() []domain.QuestionNode
	Prompts() []domain.PromptNode
}

// GraphOverlay contains session state to highlight on the graph.
type GraphOverlay struct {
	Visited []domain.StepRef
	Current domain.StepRef
}

// OverlayOf builds the overlay for a session state.
func OverlayOf(state *domain.State) *GraphOverlay {
	if state == nil {
		return nil
	}
	return &GraphOverlay{Visited: state.History, Current: state.Current}
}

// GenerateMermaid produces a Mermaid flowchart of the decision tree.
// Shapes:
// - Question: [/Parallelogram/]
// - Prompt: ([Stadium])
// - Missing target: {{Hexagon}}, styled "missing"
// Each edge is labelled with the answer that selects it. Next entries that are not
// valid step references are listed as comments.
func GenerateMermaid(nodes Nodes, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	known := make(map[domain.StepRef]bool)
	questions := nodes.Questions()
	prompts := nodes.Prompts()
	for _, q := range questions {
		known[q.Ref()] = true
		fmt.Fprintf(&sb, "    %s[/\"%s\"/]\n", mermaidID(q.Ref()), escapeLabel(q.Label))
	}
	for _, p := range prompts {
		known[p.Ref()] = true
		fmt.Fprintf(&sb, "    %s([\"%s\"])\n", mermaidID(p.Ref()), escapeLabel(p.Label))
	}

	missing := make(map[domain.StepRef]bool)
	for _, q := range questions {
		from := mermaidID(q.Ref())
		for i, answer := range q.Answers {
			if i >= len(q.Next) {
				break
			}
			to, err := domain.ParseStepRef(q.Next[i])
			if err != nil {
				fmt.Fprintf(&sb, "    %%%% %s: answer %q has malformed next %q\n", q.Ref(), answer, q.Next[i])
				continue
			}
			if !known[to] && !missing[to] {
				missing[to] = true
				fmt.Fprintf(&sb, "    %s{{\"%s\"}}\n", mermaidID(to), escapeLabel(to.String()))
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, escapeLabel(answer), mermaidID(to))
		}
	}

	if len(missing) > 0 {
		sb.WriteString("    classDef missing fill:#ffebee,stroke:#c62828,stroke-dasharray:4 2,color:#000;\n")
		for _, q := range questions {
			for _, raw := range q.Next {
				ref, err := domain.ParseStepRef(raw)
				if err == nil && missing[ref] {
					fmt.Fprintf(&sb, "    class %s missing;\n", mermaidID(ref))
					delete(missing, ref)
				}
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.StepRef]bool)
		for _, ref := range overlay.Visited {
			if ref.IsZero() || seen[ref] {
				continue
			}
			seen[ref] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", mermaidID(ref))
		}
		if !overlay.Current.IsZero() {
			fmt.Fprintf(&sb, "    class %s current;\n", mermaidID(overlay.Current))
		}
	}

	return sb.String()
}

// mermaidID maps a reference to a Mermaid-safe identifier, e.g. question:1 -> question_1.
func mermaidID(ref domain.StepRef) string {
	var sb strings.Builder
	sb.WriteString(string(ref.Kind))
	sb.WriteByte('_')
	for _, r := range ref.ID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "#quot;")
}
