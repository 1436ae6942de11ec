package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/reprise/entity"
	"github.com/roach88/reprise/msg"
)

// RunWithGolden executes a scenario and compares its transcript against a
// golden file at testdata/golden/{scenario name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files are the source of truth for expected transcripts; the
// canonical message encoding keeps them byte-stable across runs.
func RunWithGolden(t *testing.T, reg *entity.Registry, scenarioPath string) *Result {
	t.Helper()

	sc, err := LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}

	result, err := Run(reg, sc)
	if err != nil {
		t.Fatalf("run scenario: %v", err)
	}

	transcript, err := RenderTranscript(result)
	if err != nil {
		t.Fatalf("render transcript: %v", err)
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"))
	g.Assert(t, sc.Name, transcript)
	return result
}

// RenderTranscript renders a result's transcript as one wire-form message
// per line, tagged by direction.
func RenderTranscript(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	for _, entry := range result.Transcript {
		data, err := msg.Encode(entry.Message)
		if err != nil {
			return nil, fmt.Errorf("render transcript: %w", err)
		}
		fmt.Fprintf(&buf, "%-3s %s\n", entry.Direction, data)
	}
	return buf.Bytes(), nil
}
