package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// File is the on-disk catalog format (YAML or JSON). Durations are
// strings in Go syntax ("200ms", "1.5s"); empty means zero.
type File struct {
	Motions     []MotionSpec     `yaml:"motions" json:"motions"`
	Expressions []ExpressionSpec `yaml:"expressions" json:"expressions"`
	Conflicts   [][]string       `yaml:"conflicts" json:"conflicts"`
	Sequences   []SequenceSpec   `yaml:"sequences" json:"sequences"`
	Reactions   []ReactionSpec   `yaml:"reactions" json:"reactions"`
}

// MotionSpec declares one motion group.
type MotionSpec struct {
	Group    string  `yaml:"group" json:"group"`
	Region   string  `yaml:"region" json:"region"`
	Rank     string  `yaml:"rank" json:"rank"`
	Weight   float64 `yaml:"weight" json:"weight"`
	FadeIn   string  `yaml:"fade_in" json:"fade_in"`
	FadeOut  string  `yaml:"fade_out" json:"fade_out"`
	Duration string  `yaml:"duration" json:"duration"`
}

// ExpressionSpec declares one expression.
type ExpressionSpec struct {
	Name       string   `yaml:"name" json:"name"`
	Intensity  float64  `yaml:"intensity" json:"intensity"`
	Rebound    string   `yaml:"rebound" json:"rebound"`
	Compatible []string `yaml:"compatible" json:"compatible"`
}

// StepSpec declares one sequence step.
type StepSpec struct {
	Expression string  `yaml:"expression" json:"expression"`
	Weight     float64 `yaml:"weight" json:"weight"`
	PreDelay   string  `yaml:"pre_delay" json:"pre_delay"`
	Hold       string  `yaml:"hold" json:"hold"`
	BlendWith  string  `yaml:"blend_with" json:"blend_with"`
	BlendRatio float64 `yaml:"blend_ratio" json:"blend_ratio"`
}

// SequenceSpec declares one sequence.
type SequenceSpec struct {
	Name  string     `yaml:"name" json:"name"`
	Loop  bool       `yaml:"loop" json:"loop"`
	Steps []StepSpec `yaml:"steps" json:"steps"`
}

// ReactionSpec declares one keyword reaction rule.
type ReactionSpec struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Sequence string   `yaml:"sequence" json:"sequence"`
	Priority int      `yaml:"priority" json:"priority"`
}

// LoadFile reads a catalog from a YAML or JSON file, merged over the
// built-in defaults so partial files only need to declare what they add or
// override.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var file File
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
		}
	}

	return file.Apply(Default())
}

// Parse decodes a YAML catalog document into a fresh catalog without the
// built-in defaults.
func Parse(data []byte) (*Catalog, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return file.Apply(New())
}

// Apply folds the file's declarations into base and returns it.
func (f *File) Apply(base *Catalog) (*Catalog, error) {
	for i, m := range f.Motions {
		def, err := m.toDef()
		if err != nil {
			return nil, fmt.Errorf("motion %d (%s): %w", i, m.Group, err)
		}
		base.AddMotion(def)
	}
	for _, e := range f.Expressions {
		base.AddExpression(ExpressionDef{
			Name:       e.Name,
			Intensity:  e.Intensity,
			Rebound:    e.Rebound,
			Compatible: e.Compatible,
		})
	}
	for i, pair := range f.Conflicts {
		if len(pair) != 2 {
			return nil, fmt.Errorf("conflict %d: expected a pair, got %d names", i, len(pair))
		}
		base.AddConflict(pair[0], pair[1])
	}
	for i, s := range f.Sequences {
		seq, err := s.toSequence()
		if err != nil {
			return nil, fmt.Errorf("sequence %d (%s): %w", i, s.Name, err)
		}
		base.AddSequence(seq)
	}
	for _, r := range f.Reactions {
		base.AddReaction(ReactionRule{
			Name:     r.Name,
			Keywords: r.Keywords,
			Sequence: r.Sequence,
			Priority: r.Priority,
		})
	}
	return base, nil
}

func (m MotionSpec) toDef() (MotionDef, error) {
	fadeIn, err := parseDuration(m.FadeIn)
	if err != nil {
		return MotionDef{}, fmt.Errorf("fade_in: %w", err)
	}
	fadeOut, err := parseDuration(m.FadeOut)
	if err != nil {
		return MotionDef{}, fmt.Errorf("fade_out: %w", err)
	}
	duration, err := parseDuration(m.Duration)
	if err != nil {
		return MotionDef{}, fmt.Errorf("duration: %w", err)
	}
	region := domain.Region("")
	if m.Region != "" {
		region = domain.ParseRegion(m.Region)
	}
	return MotionDef{
		Group:    m.Group,
		Region:   region,
		Rank:     domain.ParseRank(m.Rank),
		Weight:   m.Weight,
		FadeIn:   fadeIn,
		FadeOut:  fadeOut,
		Duration: duration,
	}, nil
}

func (s SequenceSpec) toSequence() (Sequence, error) {
	seq := Sequence{Name: s.Name, Loop: s.Loop}
	for i, st := range s.Steps {
		preDelay, err := parseDuration(st.PreDelay)
		if err != nil {
			return Sequence{}, fmt.Errorf("step %d pre_delay: %w", i, err)
		}
		hold, err := parseDuration(st.Hold)
		if err != nil {
			return Sequence{}, fmt.Errorf("step %d hold: %w", i, err)
		}
		seq.Steps = append(seq.Steps, SequenceStep{
			Expression: st.Expression,
			Weight:     st.Weight,
			PreDelay:   preDelay,
			Hold:       hold,
			BlendWith:  st.BlendWith,
			BlendRatio: domain.Clamp01(st.BlendRatio),
		})
	}
	return seq, nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, nil
	}
	return d, nil
}
