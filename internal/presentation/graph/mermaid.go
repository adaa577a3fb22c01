package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/catalog"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// ConflictOverlay contains live palette state to visualize on the
// conflict diagram.
type ConflictOverlay struct {
	ActiveExpressions []string
	CurrentEmotion    string
}

// RegionOverlay contains live arbitration state to visualize on the
// region diagram.
type RegionOverlay struct {
	PlayingGroups []string
}

// GenerateConflictMermaid produces a Mermaid graph of the catalog's
// expression palette. Expressions are nodes; mutual-exclusion pairs are
// dotted undirected edges. Semantic styling:
// - neutral: ((Circle)), the resting expression
// - everything else: (Rounded)
// Overlay styles (active/current emotion) are applied if provided.
func GenerateConflictMermaid(cat *catalog.Catalog, overlay *ConflictOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, def := range cat.Expressions() {
		safeID := sanitizeMermaidID(def.Name)

		opener, closer := "(", ")"
		if def.Name == "neutral" {
			opener, closer = "((", "))"
		}

		label := fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, def.Name, closer)
		if def.Rebound != "" {
			// Annotate the fall-back path taken on release.
			label = fmt.Sprintf("    %s%s\"%s <br/> ↩ %s\"%s\n", safeID, opener, def.Name, def.Rebound, closer)
		}
		sb.WriteString(label)
	}

	// Each pair is stored symmetrically; emit one edge per pair.
	for _, pair := range cat.ConflictPairs() {
		a, b := sanitizeMermaidID(pair.A), sanitizeMermaidID(pair.B)
		sb.WriteString(fmt.Sprintf("    %s -. \"✖\" .- %s\n", a, b))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high contrast regardless of theme.
		sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		activeSet := make(map[string]bool)
		for _, name := range overlay.ActiveExpressions {
			safeID := sanitizeMermaidID(name)
			if !activeSet[safeID] && safeID != "" {
				activeSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s active;\n", safeID))
			}
		}

		if overlay.CurrentEmotion != "" {
			safeCurrent := sanitizeMermaidID(overlay.CurrentEmotion)
			sb.WriteString(fmt.Sprintf("    class %s current;\n", safeCurrent))
		}
	}

	return sb.String()
}

// GenerateRegionMermaid produces a Mermaid graph of the catalog's motion
// groups, clustered by the body region each group occupies. Groups that
// rank above idle get a subroutine shape; idle groups a stadium. Motions
// with a fixed duration are annotated with it.
func GenerateRegionMermaid(cat *catalog.Catalog, overlay *RegionOverlay) string {
	byRegion := make(map[domain.Region][]catalog.MotionDef)
	for _, def := range cat.Motions() {
		byRegion[def.Region] = append(byRegion[def.Region], def)
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, region := range domain.Regions() {
		defs := byRegion[region]
		if len(defs) == 0 {
			continue
		}
		sort.Slice(defs, func(i, j int) bool { return defs[i].Group < defs[j].Group })

		sb.WriteString(fmt.Sprintf("    subgraph %s\n", sanitizeMermaidID(string(region))))
		for _, def := range defs {
			safeID := sanitizeMermaidID(def.Group)

			opener, closer := "[[", "]]"
			if def.Rank == domain.RankIdle {
				opener, closer = "([", "])"
			}

			text := fmt.Sprintf("%s <br/> %s", def.Group, def.Rank)
			if def.Duration > 0 {
				text = fmt.Sprintf("%s <br/> ⏱️ %s", text, def.Duration)
			}
			sb.WriteString(fmt.Sprintf("        %s%s\"%s\"%s\n", safeID, opener, text, closer))
		}
		sb.WriteString("    end\n")
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef playing fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		playingSet := make(map[string]bool)
		for _, group := range overlay.PlayingGroups {
			safeID := sanitizeMermaidID(group)
			if !playingSet[safeID] && safeID != "" {
				playingSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s playing;\n", safeID))
			}
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
