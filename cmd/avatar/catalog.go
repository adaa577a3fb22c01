package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/cli"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/presentation/tui"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/spf13/cobra"
)

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the definitions a catalog provides",
	Long: `Loads a catalog and prints its motions, expressions, sequences and
reaction rules as a rendered summary. Without a source it shows the
built-in catalog the engine starts with.`,
	Run: func(cmd *cobra.Command, args []string) {
		src, err := cli.ResolveSource(catalogPath(cmd, args))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		cat, err := src.Load(cmd.Context())
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}

		md := catalogMarkdown(cat)
		out, err := tui.NewRenderer()(md)
		if err != nil {
			// Fall back to the raw markdown when the terminal
			// renderer is unavailable.
			fmt.Print(md)
			return
		}
		fmt.Print(out)
	},
}

func catalogMarkdown(cat *catalog.Catalog) string {
	var b strings.Builder

	motions := cat.Motions()
	expressions := cat.Expressions()
	sequences := cat.Sequences()
	reactions := cat.Reactions()

	b.WriteString("# Catalog\n\n")
	fmt.Fprintf(&b, "%d motions, %d expressions, %d sequences, %d reaction rules.\n\n",
		len(motions), len(expressions), len(sequences), len(reactions))

	b.WriteString("## Motions\n\n")
	b.WriteString("| Group | Region | Rank | Weight | Fade In/Out | Duration |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, m := range motions {
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %s / %s | %s |\n",
			m.Group, m.Region, m.Rank, m.Weight,
			shortDuration(m.FadeIn), shortDuration(m.FadeOut), motionDuration(m.Duration))
	}

	b.WriteString("\n## Expressions\n\n")
	b.WriteString("| Name | Intensity | Rebound | Compatible |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, e := range expressions {
		fmt.Fprintf(&b, "| %s | %.2f | %s | %s |\n",
			e.Name, e.Intensity, orDash(e.Rebound), orDash(strings.Join(e.Compatible, ", ")))
	}

	if pairs := cat.ConflictPairs(); len(pairs) > 0 {
		b.WriteString("\nConflicting pairs: ")
		parts := make([]string, 0, len(pairs))
		for _, p := range pairs {
			parts = append(parts, fmt.Sprintf("%s ✖ %s", p.A, p.B))
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(".\n")
	}

	b.WriteString("\n## Sequences\n\n")
	b.WriteString("| Name | Steps | Loops |\n")
	b.WriteString("|---|---|---|\n")
	for _, s := range sequences {
		steps := make([]string, 0, len(s.Steps))
		for _, st := range s.Steps {
			steps = append(steps, st.Expression)
		}
		fmt.Fprintf(&b, "| %s | %s | %v |\n", s.Name, strings.Join(steps, " → "), s.Loop)
	}

	b.WriteString("\n## Reactions\n\n")
	b.WriteString("| Rule | Keywords | Sequence | Priority |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range reactions {
		fmt.Fprintf(&b, "| %s | %s | %s | %d |\n",
			r.Name, strings.Join(r.Keywords, ", "), r.Sequence, r.Priority)
	}

	return b.String()
}

func motionDuration(d time.Duration) string {
	if d <= 0 {
		return "loops"
	}
	return shortDuration(d)
}

func shortDuration(d time.Duration) string {
	return d.Truncate(10 * time.Millisecond).String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
