package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# NEO Velocity Run\n\n")
	if r.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", r.RunID))
	}
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Input: `%s` | Output: `%s`\n\n", r.InputPath, r.OutputPath))

	// Counts
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Rows Read | %d |\n", r.RowsRead))
	sb.WriteString(fmt.Sprintf("| Filtered Out | %d |\n", r.FilteredOut))
	sb.WriteString(fmt.Sprintf("| Processed | %d |\n", r.Processed))
	sb.WriteString(fmt.Sprintf("| Skipped | %d |\n", r.Skipped))
	sb.WriteString(fmt.Sprintf("| Hazardous (PHA) | %d |\n", r.Hazardous))
	sb.WriteString(fmt.Sprintf("| Duration | %s |\n", r.Duration.Round(time.Millisecond)))
	sb.WriteString("\n")

	// Speeds
	sb.WriteString("## Speed (m/s)\n\n")
	if r.Speed != nil {
		sb.WriteString("| Min | Max | Mean | StdDev |\n")
		sb.WriteString("|-----|-----|------|--------|\n")
		sb.WriteString(fmt.Sprintf("| %.2f | %.2f | %.2f | %.2f |\n",
			r.Speed.Min, r.Speed.Max, r.Speed.Mean, r.Speed.StdDev))
	} else {
		sb.WriteString("No objects processed.\n")
	}
	sb.WriteString("\n")

	// Errors
	sb.WriteString("## Errors\n\n")
	kinds := r.SortedErrorKinds()
	if len(kinds) == 0 {
		sb.WriteString("No errors.\n\n")
		return sb.String()
	}

	sb.WriteString("| Kind | Count |\n")
	sb.WriteString("|------|-------|\n")
	for _, k := range kinds {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", k.Kind, k.Count))
	}
	sb.WriteString("\n")

	if len(r.Errors) > 0 {
		sb.WriteString("### First Errors\n\n")
		for _, e := range r.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
