package harness

import (
	"fmt"
	"log/slog"

	"github.com/roach88/reprise/engine"
	"github.com/roach88/reprise/entity"
	"github.com/roach88/reprise/msg"
)

// StepResult records one Complete call of a scenario run.
type StepResult struct {
	Inputs    []msg.Message
	Outputs   []msg.Message
	Processed []msg.Message // non-nil when the step ran cleanup
}

// Result is a completed scenario run.
type Result struct {
	Scenario *Scenario
	Steps    []StepResult

	// Transcript is every message that crossed the engine boundary, in
	// order, tagged by direction. Golden files are rendered from it.
	Transcript []TranscriptEntry
}

// TranscriptEntry is one transcript line.
type TranscriptEntry struct {
	Direction string // "in" or "out"
	Message   msg.Message
}

// Run executes a scenario against a registry.
//
// Each step appends its inputs to the execution's running context, calls
// Complete, and — when the step declares expectations — requires the
// outputs to match exactly. A step with cleanup set compacts the log
// afterwards, exactly as a host archiving processed messages would.
func Run(reg *entity.Registry, sc *Scenario) (*Result, error) {
	factory, err := reg.Lookup(sc.Entity)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	execution := engine.New(factory)
	result := &Result{Scenario: sc}

	for i, step := range sc.Steps {
		newInputs, err := decodeMessages(step.Inputs)
		if err != nil {
			return nil, fmt.Errorf("scenario %q step %d inputs: %w", sc.Name, i, err)
		}

		inputs := append(append([]msg.Message{}, execution.Context()...), newInputs...)
		outputs := execution.Complete(inputs)

		for _, m := range newInputs {
			result.Transcript = append(result.Transcript, TranscriptEntry{Direction: "in", Message: m})
		}
		for _, m := range outputs {
			result.Transcript = append(result.Transcript, TranscriptEntry{Direction: "out", Message: m})
		}

		stepResult := StepResult{Inputs: newInputs, Outputs: outputs}

		if step.Expect != nil {
			expected, err := decodeMessages(step.Expect)
			if err != nil {
				return nil, fmt.Errorf("scenario %q step %d expect: %w", sc.Name, i, err)
			}
			if err := compareOutputs(expected, outputs); err != nil {
				return nil, fmt.Errorf("scenario %q step %d: %w", sc.Name, i, err)
			}
		}

		if step.Cleanup {
			stepResult.Processed = execution.Cleanup()
		}

		result.Steps = append(result.Steps, stepResult)
		slog.Debug("scenario step completed",
			"scenario", sc.Name,
			"step", i,
			"outputs", len(outputs),
		)
	}

	return result, nil
}

// compareOutputs requires the produced outputs to equal the expectation,
// message by message, comparing canonical encodings so the failure shows
// wire-level content.
func compareOutputs(expected, got []msg.Message) error {
	if len(expected) != len(got) {
		return fmt.Errorf("expected %d outputs, got %d", len(expected), len(got))
	}
	for i := range expected {
		want, err := msg.Encode(expected[i])
		if err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		have, err := msg.Encode(got[i])
		if err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		if string(want) != string(have) {
			return fmt.Errorf("output %d mismatch:\n  want %s\n  got  %s", i, want, have)
		}
	}
	return nil
}
