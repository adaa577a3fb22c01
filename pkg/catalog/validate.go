package catalog

import "fmt"

// ValidationError represents a single catalog consistency failure.
type ValidationError struct {
	Kind   string // "expression", "sequence", "reaction", "conflict"
	Name   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Name, e.Reason)
}

// AggregateError collects every validation failure found in one pass.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d catalog errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// ValidationErrors unwraps an AggregateError, or returns nil.
func ValidationErrors(err error) []error {
	if aggr, ok := err.(*AggregateError); ok {
		return aggr.Errors
	}
	return nil
}

// Validate checks the catalog for dangling references and table
// inconsistencies: sequence steps and rebound routes must name known
// expressions, reactions must name known sequences, and the conflict table
// must be symmetric. All failures are reported in one aggregate.
func (c *Catalog) Validate() error {
	var errs []error

	report := func(kind, name, reason string) {
		errs = append(errs, &ValidationError{Kind: kind, Name: name, Reason: reason})
	}

	for _, def := range c.Expressions() {
		if def.Rebound != "" {
			if _, ok := c.Expression(def.Rebound); !ok {
				report("expression", def.Name, fmt.Sprintf("rebound %q is not a known expression", def.Rebound))
			}
		}
		for _, comp := range def.Compatible {
			if _, ok := c.Expression(comp); !ok {
				report("expression", def.Name, fmt.Sprintf("compatible entry %q is not a known expression", comp))
			}
		}
	}

	for _, seq := range c.Sequences() {
		if len(seq.Steps) == 0 {
			report("sequence", seq.Name, "has no steps")
		}
		for i, step := range seq.Steps {
			if step.Expression == "" {
				report("sequence", seq.Name, fmt.Sprintf("step %d has no expression", i))
				continue
			}
			if _, ok := c.Expression(step.Expression); !ok {
				report("sequence", seq.Name, fmt.Sprintf("step %d expression %q is unknown", i, step.Expression))
			}
			if step.BlendWith != "" {
				if _, ok := c.Expression(step.BlendWith); !ok {
					report("sequence", seq.Name, fmt.Sprintf("step %d blend partner %q is unknown", i, step.BlendWith))
				}
			}
		}
	}

	for _, rule := range c.Reactions() {
		if rule.Sequence == "" {
			report("reaction", rule.Name, "has no sequence")
			continue
		}
		if _, err := c.Sequence(rule.Sequence); err != nil {
			report("reaction", rule.Name, fmt.Sprintf("sequence %q is unknown", rule.Sequence))
		}
	}

	for a, set := range c.conflicts {
		for b := range set {
			if !c.InConflict(b, a) {
				report("conflict", a, fmt.Sprintf("pair with %q is not symmetric", b))
			}
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
