// Package harness provides a conformance testing framework for the
// execution engine. Scenarios are YAML files describing a conversation:
// the messages fed to Complete at each step and the outputs expected back.
// Scenario files are validated against an embedded CUE schema, executed
// against an entity registry, and their transcripts compared to golden
// files.
package harness

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/reprise/msg"
)

//go:embed schema.cue
var schemaCUE string

// Scenario defines one conformance scenario.
type Scenario struct {
	// Name uniquely identifies the scenario; the golden file carries it.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description,omitempty"`

	// Entity is the subject's entity kind, resolved via the registry.
	Entity string `yaml:"entity"`

	// Steps are Complete calls in order.
	Steps []Step `yaml:"steps"`
}

// Step is one Complete call: the messages appended to the running context
// and, optionally, the exact outputs expected back.
type Step struct {
	// Inputs are wire-form messages appended to the context before the
	// call.
	Inputs []map[string]any `yaml:"inputs"`

	// Expect, when present, is compared against the call's outputs.
	Expect []map[string]any `yaml:"expect,omitempty"`

	// Cleanup runs log compaction after the call.
	Cleanup bool `yaml:"cleanup,omitempty"`
}

// LoadScenario reads, schema-validates, and parses a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario validates scenario YAML against the embedded CUE schema and
// decodes it.
func ParseScenario(data []byte) (*Scenario, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := validateScenario(raw); err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse scenario %q: at least one step is required", sc.Name)
	}
	return &sc, nil
}

// validateScenario unifies the decoded document with the #Scenario
// definition and reports the first violation.
func validateScenario(doc any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("scenario schema: %w", err)
	}

	val := ctx.Encode(doc)
	if err := val.Err(); err != nil {
		return fmt.Errorf("scenario document: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario does not match schema: %s", cueerrors.Details(err, nil))
	}
	return nil
}

// decodeMessages converts a step's wire-form maps into typed messages.
func decodeMessages(raw []map[string]any) ([]msg.Message, error) {
	msgs := make([]msg.Message, 0, len(raw))
	for i, entry := range raw {
		data, err := marshalWire(entry)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		m, err := msg.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// marshalWire renders a YAML-decoded map as JSON for msg.Decode, with
// integer preservation (yaml.v3 already decodes whole numbers as int).
func marshalWire(entry map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entry); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}
