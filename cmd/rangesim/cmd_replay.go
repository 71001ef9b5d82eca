package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyberrange/rangesim/pkg/cli"
	"github.com/cyberrange/rangesim/pkg/sim"
	"github.com/cyberrange/rangesim/pkg/spec"
)

// replayRecord mirrors the JSON-lines shape output.FileSink.ActionRecord
// writes per dispatched request (pkg/output/file.go's actionRecord),
// duplicated here rather than exported from pkg/output since a sink is a
// write-only collaborator (spec.md §6) with no business providing a
// read-back type for its own format.
type replayRecord struct {
	Tick   int    `json:"tick"`
	Agent  string `json:"agent"`
	Path   string `json:"path"`
	Result string `json:"result"`
	Reason string `json:"reason,omitempty"`
}

// newReplayCmd builds "rangesim replay", which re-applies a recorded
// action-history log against a freshly built network and checks that
// every dispatch reproduces its originally recorded outcome — the
// determinism property the whole engine is built to guarantee (spec.md
// §1: "deterministic, step-quantised evolutions"), grounded on the
// teacher's newtest suite re-run (same scenario, compare against a
// previous StepResult) retargeted from "did the device end up in the
// expected state" to "did the dispatch outcome match the recording".
func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml> <actions.jsonl>",
		Short: "Re-apply a recorded action-history log and verify outcomes match",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarioPath, actionsPath := args[0], args[1]

			s, err := spec.NewLoader(scenarioPath).Load()
			if err != nil {
				return fmt.Errorf("loading scenario: %w", err)
			}

			byTick, maxTick, err := loadActionLog(actionsPath)
			if err != nil {
				return fmt.Errorf("loading action log: %w", err)
			}

			driver := sim.NewDriver(nil, nil)
			if _, err := driver.Reset(s); err != nil {
				return fmt.Errorf("resetting simulation: %w", err)
			}

			table := cli.NewTable("TICK", "AGENT", "PATH", "RECORDED", "REPLAYED", "MATCH")
			mismatches := 0
			for t := 0; t <= maxTick; t++ {
				recs := byTick[t]
				actions := make(map[string]sim.Action, len(recs))
				for _, r := range recs {
					actions[r.Agent] = sim.Action{Path: r.Path}
				}

				_, _, done, truncated, info := driver.Step(actions)

				for _, r := range recs {
					resp := info.Responses[r.Agent]
					match := string(resp.Outcome) == r.Result
					if !match {
						mismatches++
					}
					table.Row(
						fmt.Sprintf("%d", t),
						r.Agent,
						r.Path,
						r.Result,
						string(resp.Outcome),
						matchSymbol(match),
					)
				}
				if done || truncated {
					break
				}
			}
			table.Flush()

			if mismatches > 0 {
				return fmt.Errorf("%d dispatch outcome(s) did not reproduce the recording", mismatches)
			}
			fmt.Println(cli.Green(fmt.Sprintf("\nreplay matched all %d recorded actions", countRecords(byTick))))
			return nil
		},
	}
	return cmd
}

// loadActionLog reads a JSON-lines action-history file and groups its
// records by tick, returning the highest tick number seen so the replay
// loop knows how many steps to drive.
func loadActionLog(path string) (map[int][]replayRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	byTick := make(map[int][]replayRecord)
	maxTick := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec replayRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, 0, fmt.Errorf("parsing action record: %w", err)
		}
		byTick[rec.Tick] = append(byTick[rec.Tick], rec)
		if rec.Tick > maxTick {
			maxTick = rec.Tick
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return byTick, maxTick, nil
}

func countRecords(byTick map[int][]replayRecord) int {
	total := 0
	for _, recs := range byTick {
		total += len(recs)
	}
	return total
}

func matchSymbol(match bool) string {
	if match {
		return cli.Green("match")
	}
	return cli.Red("mismatch")
}
