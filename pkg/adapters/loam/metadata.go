package loam

// DefMetadata represents the frontmatter of one catalog document. A
// document declares exactly one definition; Kind selects which fields
// apply. It uses "mapstructure" tags to match standard Frontmatter/YAML
// keys (fade_in, blend_with).
type DefMetadata struct {
	// Kind is "motion", "expression", "sequence" or "reaction". Documents
	// under a directory of the matching plural name may omit it.
	Kind string `json:"kind" mapstructure:"kind"`

	// Name identifies the definition. Empty means the file name.
	Name string `json:"name" mapstructure:"name"`

	// Motion fields. Group is an alias for Name kept for symmetry with
	// the engine API; durations are strings in Go syntax ("200ms").
	Group    string  `json:"group" mapstructure:"group"`
	Region   string  `json:"region" mapstructure:"region"`
	Rank     string  `json:"rank" mapstructure:"rank"`
	Weight   float64 `json:"weight" mapstructure:"weight"`
	FadeIn   string  `json:"fade_in" mapstructure:"fade_in"`
	FadeOut  string  `json:"fade_out" mapstructure:"fade_out"`
	Duration string  `json:"duration" mapstructure:"duration"`

	// Expression fields. Conflicts lists expressions this one cannot
	// coexist with; pairs are registered symmetrically.
	Intensity  float64  `json:"intensity" mapstructure:"intensity"`
	Rebound    string   `json:"rebound" mapstructure:"rebound"`
	Compatible []string `json:"compatible" mapstructure:"compatible"`
	Conflicts  []string `json:"conflicts" mapstructure:"conflicts"`

	// Sequence fields. A steps entry is either an inline step map or a
	// string naming another sequence document whose steps are inlined.
	Loop  bool  `json:"loop" mapstructure:"loop"`
	Steps []any `json:"steps" mapstructure:"steps"`

	// Reaction fields
	Keywords []string `json:"keywords" mapstructure:"keywords"`
	Sequence string   `json:"sequence" mapstructure:"sequence"`
	Priority int      `json:"priority" mapstructure:"priority"`
}

// StepMeta is one inline step entry in a sequence document.
type StepMeta struct {
	Expression string  `json:"expression" mapstructure:"expression"`
	Weight     float64 `json:"weight" mapstructure:"weight"`
	PreDelay   string  `json:"pre_delay" mapstructure:"pre_delay"`
	Hold       string  `json:"hold" mapstructure:"hold"`
	BlendWith  string  `json:"blend_with" mapstructure:"blend_with"`
	BlendRatio float64 `json:"blend_ratio" mapstructure:"blend_ratio"`
}
