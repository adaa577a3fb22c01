package cli

import (
	"fmt"
	"strings"
	"time"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
)

// statusMarkdown lays the engine status out as a small markdown document
// for the glamour renderer.
func statusMarkdown(st avatar.Status) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", st.Name)
	fmt.Fprintf(&sb, "Virtual clock %s after %d ticks.\n\n", fmtDuration(st.Now), st.Ticks)

	fmt.Fprintf(&sb, "**Emotion:** %s (intensity %.2f, momentum %.2f)\n\n",
		orNone(st.Emotion.Current), st.Emotion.Intensity, st.Momentum)
	if st.Sequence != "" {
		if st.SequenceStep < 0 {
			fmt.Fprintf(&sb, "**Sequence:** %s (between steps)\n\n", st.Sequence)
		} else {
			fmt.Fprintf(&sb, "**Sequence:** %s (step %d)\n\n", st.Sequence, st.SequenceStep)
		}
	}
	if st.IdleGroup != "" {
		fmt.Fprintf(&sb, "**Idle:** %s\n\n", st.IdleGroup)
	}

	sb.WriteString("## Motions\n\n")
	if len(st.Motions) == 0 {
		sb.WriteString("No motion layers.\n\n")
	} else {
		sb.WriteString("| Group | Phase | Weight | Priority | Mode |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, l := range st.Motions {
			fmt.Fprintf(&sb, "| %s | %s | %.2f | %d | %s |\n",
				l.Group, l.Phase, l.Weight, l.Priority, l.Mode)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Expressions\n\n")
	if len(st.Selection.Weights) == 0 {
		sb.WriteString("Palette is empty.\n\n")
	} else {
		sb.WriteString("| Name | Weight | Priority |\n")
		sb.WriteString("|---|---|---|\n")
		for _, w := range st.Selection.Weights {
			fmt.Fprintf(&sb, "| %s | %.2f | %d |\n", w.Name, w.Weight, w.Priority)
		}
		sb.WriteString("\n")
	}
	if len(st.Selection.Dropped) > 0 {
		fmt.Fprintf(&sb, "Dropped by conflict or capacity: %s.\n\n",
			strings.Join(st.Selection.Dropped, ", "))
	}

	fmt.Fprintf(&sb, "## Blend\n\nFinal weight %.2f over %d layers.\n",
		st.Blend.Final, len(st.Blend.Layers))

	return sb.String()
}

func fmtDuration(d time.Duration) string {
	return d.Truncate(10 * time.Millisecond).String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
