// Package benchspec holds the authored, versioned description of the
// benchmark a manifest vouches for: entrypoints, determinism contract,
// pinned parameters and expected outcomes.
//
// The document is configuration, not computation. It is kept apart from the
// computed file inventory because the two change for different reasons.
package benchspec

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Document is the static half of a manifest.
type Document struct {
	Schema       string                 `yaml:"schema" json:"schema"`
	SpecID       string                 `yaml:"spec_id" json:"spec_id"`
	Version      string                 `yaml:"version" json:"version"`
	Repo         string                 `yaml:"repo" json:"repo"`
	Entrypoints  map[string]Entrypoint  `yaml:"entrypoints" json:"entrypoints"`
	Determinism  Determinism            `yaml:"determinism" json:"determinism"`
	PinnedParams map[string]any         `yaml:"pinned_params" json:"pinned_params"`
	Expected     map[string]Expectation `yaml:"expected" json:"expected"`
}

// Determinism documents the reproducibility contract of the benchmarked
// engine. It is recorded, never executed.
type Determinism struct {
	NoRNG        bool   `yaml:"no_rng" json:"no_rng"`
	Softmax      string `yaml:"softmax" json:"softmax"`
	StateHash    string `yaml:"state_hash" json:"state_hash"`
	MemoryKVHash string `yaml:"memory_kv_hash,omitempty" json:"memory_kv_hash,omitempty"`
	TieBreak     string `yaml:"tie_break" json:"tie_break"`
}

// Entrypoint maps a logical role to one path or a list of paths.
// Paths are descriptive and not checked against the tree.
type Entrypoint struct {
	Paths []string
	// List keeps the list form even when only one path is named.
	List bool
}

// Single returns an entrypoint naming exactly one path.
func Single(path string) Entrypoint {
	return Entrypoint{Paths: []string{path}}
}

// Multi returns an entrypoint in list form.
func Multi(paths ...string) Entrypoint {
	return Entrypoint{Paths: paths, List: true}
}

func (e Entrypoint) MarshalJSON() ([]byte, error) {
	if !e.List && len(e.Paths) == 1 {
		return json.Marshal(e.Paths[0])
	}
	if e.Paths == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e.Paths)
}

func (e *Entrypoint) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var s string
		if err := n.Decode(&s); err != nil {
			return err
		}
		*e = Single(s)
		return nil
	case yaml.SequenceNode:
		var paths []string
		if err := n.Decode(&paths); err != nil {
			return err
		}
		*e = Multi(paths...)
		return nil
	default:
		return fmt.Errorf("line %d: entrypoint must be a path or a list of paths", n.Line)
	}
}

// Outcome is the categorical result a benchmark scenario is expected to print.
type Outcome string

const (
	OutcomeHit     Outcome = "HIT"
	OutcomeMiss    Outcome = "MISS"
	OutcomeUnknown Outcome = "UNKNOWN"
	OutcomeSecret  Outcome = "SECRET"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeHit, OutcomeMiss, OutcomeUnknown, OutcomeSecret:
		return true
	}
	return false
}

// Expectation is either a leaf outcome or a table of named sub-cases.
type Expectation struct {
	Outcome Outcome
	Cases   map[string]Expectation
}

// Expect returns a leaf expectation.
func Expect(o Outcome) Expectation {
	return Expectation{Outcome: o}
}

// Table returns a nested expectation.
func Table(cases map[string]Expectation) Expectation {
	return Expectation{Cases: cases}
}

// IsTable reports whether x holds sub-cases rather than an outcome.
func (x Expectation) IsTable() bool {
	return x.Cases != nil
}

func (x Expectation) MarshalJSON() ([]byte, error) {
	if x.IsTable() {
		return json.Marshal(x.Cases)
	}
	return json.Marshal(string(x.Outcome))
}

func (x *Expectation) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var s string
		if err := n.Decode(&s); err != nil {
			return err
		}
		*x = Expect(Outcome(s))
		return nil
	case yaml.MappingNode:
		cases := map[string]Expectation{}
		if err := n.Decode(&cases); err != nil {
			return err
		}
		*x = Table(cases)
		return nil
	default:
		return fmt.Errorf("line %d: expectation must be an outcome or a mapping", n.Line)
	}
}

// Leaves flattens the expectation tree into slash-joined scenario paths,
// sorted, e.g. "capacity/m2/B" -> HIT.
func (d *Document) Leaves() []Leaf {
	var out []Leaf
	var walk func(prefix string, m map[string]Expectation)
	walk = func(prefix string, m map[string]Expectation) {
		for name, x := range m {
			p := name
			if prefix != "" {
				p = prefix + "/" + name
			}
			if x.IsTable() {
				walk(p, x.Cases)
				continue
			}
			out = append(out, Leaf{Scenario: p, Outcome: x.Outcome})
		}
	}
	walk("", d.Expected)
	sort.Slice(out, func(i, j int) bool { return out[i].Scenario < out[j].Scenario })
	return out
}

// Leaf is one flattened expectation.
type Leaf struct {
	Scenario string
	Outcome  Outcome
}
