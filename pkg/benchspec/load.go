package benchspec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument wraps every schema or content violation.
var ErrInvalidDocument = errors.New("invalid benchmark document")

const schemaURL = "https://vsc.schemas.local/benchspec.schema.json"

//go:embed schema.json
var schemaJSON []byte

//go:embed benchmark.yaml
var defaultYAML []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error

	defaultOnce sync.Once
	defaultDoc  *Document
	defaultErr  error
)

func documentSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("benchspec schema load failed: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("benchspec schema compile failed: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// Default returns the document compiled into the binary. It is parsed once;
// callers must not modify the result.
func Default() (*Document, error) {
	defaultOnce.Do(func() {
		defaultDoc, defaultErr = Parse(defaultYAML)
	})
	return defaultDoc, defaultErr
}

// Load reads and parses a document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load benchmark document %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes YAML, checks it against the embedded JSON Schema and then
// validates the typed result.
func Parse(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	// The schema validator expects JSON-shaped values.
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	var instance any
	jdec := json.NewDecoder(bytes.NewReader(asJSON))
	jdec.UseNumber()
	if err := jdec.Decode(&instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	schema, err := documentSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the invariants the schema cannot express and guards
// documents built in code.
func (d *Document) Validate() error {
	for name, v := range map[string]string{
		"schema":  d.Schema,
		"spec_id": d.SpecID,
		"version": d.Version,
		"repo":    d.Repo,
	} {
		if v == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidDocument, name)
		}
	}
	if _, err := semver.StrictNewVersion(d.Version); err != nil {
		return fmt.Errorf("%w: version %q: %v", ErrInvalidDocument, d.Version, err)
	}

	if len(d.Entrypoints) == 0 {
		return fmt.Errorf("%w: no entrypoints", ErrInvalidDocument)
	}
	for role, e := range d.Entrypoints {
		if len(e.Paths) == 0 {
			return fmt.Errorf("%w: entrypoint %q names no paths", ErrInvalidDocument, role)
		}
	}

	for name, v := range d.PinnedParams {
		if err := checkParam(v); err != nil {
			return fmt.Errorf("%w: pinned param %q: %v", ErrInvalidDocument, name, err)
		}
	}

	if len(d.Expected) == 0 {
		return fmt.Errorf("%w: no expected outcomes", ErrInvalidDocument)
	}
	for _, leaf := range d.Leaves() {
		if !leaf.Outcome.Valid() {
			return fmt.Errorf("%w: expected %s: unknown outcome %q", ErrInvalidDocument, leaf.Scenario, leaf.Outcome)
		}
	}
	return nil
}

// maxExactInt is the largest magnitude a canonical JSON number (an IEEE 754
// double) holds without rounding.
const maxExactInt = 1 << 53

func checkParam(v any) error {
	switch n := v.(type) {
	case string, float64:
		return nil
	case int:
		return checkExactInt(int64(n))
	case int64:
		return checkExactInt(n)
	case uint64:
		if n > maxExactInt {
			return fmt.Errorf("integer %d exceeds ±2^53", n)
		}
		return nil
	default:
		return fmt.Errorf("unsupported type %T", v)
	}
}

func checkExactInt(n int64) error {
	if n > maxExactInt || n < -maxExactInt {
		return fmt.Errorf("integer %d exceeds ±2^53", n)
	}
	return nil
}
