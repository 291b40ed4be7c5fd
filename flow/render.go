package flow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RenderFormat enumerates the diagram formats flow render supports.
type RenderFormat string

const (
	FormatJSON RenderFormat = "json"
	FormatMmd  RenderFormat = "mmd"
	FormatDot  RenderFormat = "dot"
)

// Render is a pure projection of a Flow into one of the supported
// diagram formats; it has no side effects.
func Render(f Flow, format RenderFormat) (string, error) {
	switch format {
	case FormatJSON:
		return renderJSON(f)
	case FormatMmd:
		return renderMermaid(f), nil
	case FormatDot:
		return renderDot(f), nil
	default:
		return "", fmt.Errorf("unsupported render format %q", format)
	}
}

func renderJSON(f Flow) (string, error) {
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func renderMermaid(f Flow) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, id := range sortedNodeIDs(f.Nodes) {
		n := f.Nodes[id]
		sb.WriteString(fmt.Sprintf("  %s[%q]\n", id, n.Name))
	}
	for _, e := range f.Edges {
		if e.When != "" {
			sb.WriteString(fmt.Sprintf("  %s -.->|%s| %s\n", e.From, e.When, e.To))
		} else {
			sb.WriteString(fmt.Sprintf("  %s --> %s\n", e.From, e.To))
		}
	}
	return sb.String()
}

func renderDot(f Flow) string {
	var sb strings.Builder
	sb.WriteString("digraph " + safeDotID(f.ID) + " {\n")
	for _, id := range sortedNodeIDs(f.Nodes) {
		n := f.Nodes[id]
		sb.WriteString(fmt.Sprintf("  %s [label=%q];\n", id, n.Name))
	}
	for _, e := range f.Edges {
		style := ""
		if e.When != "" {
			style = fmt.Sprintf(" [style=dashed, label=%q]", e.When)
		}
		sb.WriteString(fmt.Sprintf("  %s -> %s%s;\n", e.From, e.To, style))
	}
	sb.WriteString("}\n")
	return sb.String()
}

func safeDotID(id string) string {
	if id == "" {
		return "flow"
	}
	return id
}
