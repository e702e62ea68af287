// Package harness runs transcript scenarios against the spellbook
// interpreter.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: fireball_basics
//	description: "Learning pulls in prerequisites first"
//	mode: plain            # plain | check | longest | shortest
//	max_commands: 1000     # optional cap
//	commands:              # or script: file.txt, or book: book.cue
//	  - PREREQ fireball spark
//	  - LEARN fireball
//	expect:                # or expect_file: fireball.soln
//	  - PREREQ fireball spark
//	  - LEARN fireball
//	  - "   Learning spark"
//	  - "   Learning fireball"
//	assertions:
//	  - type: learned_order
//	    items: [spark, fireball]
//
// # Assertion Types
//
//   - learned: every listed item is in the final ledger
//   - not_learned: no listed item is in the final ledger
//   - learned_order: the final ledger equals the list exactly
//   - output_contains: some transcript line equals the text
//   - output_count: exactly count transcript lines equal the text
//   - cycle_reported: a cycle report appeared (reported: false inverts)
//
// # Deterministic Testing
//
// Every scenario runs in a fresh session with a fixed session id and an
// in-memory SQLite store. Command ids are content-addressed, so the same
// scenario records byte-identical steps on every run, and the recorded
// transcript is cross-checked against the live one.
//
// Expected transcripts are truncated to the scenario's command cap the same
// way solution files are: only the first max_commands commands and their
// responses are compared.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/fireball.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
