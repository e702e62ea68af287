package harness

import (
	"fmt"
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares the transcript against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the transcript doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	AssertGolden(t, scenario.Name, result)
	return nil
}

// AssertGolden compares an already-computed result's transcript against a
// golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, FormatLines(result.Transcript))
}

// UpdateExpected rewrites the scenario's expect_file with the result's
// transcript.
func UpdateExpected(scenario *Scenario, result *Result) error {
	if scenario.ExpectFile == "" {
		return fmt.Errorf("scenario %q has no expect_file to update", scenario.Name)
	}
	if err := os.WriteFile(scenario.ExpectFile, FormatLines(result.Transcript), 0o644); err != nil {
		return fmt.Errorf("update expected transcript: %w", err)
	}
	return nil
}
