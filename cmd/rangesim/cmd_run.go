package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyberrange/rangesim/pkg/audit"
	"github.com/cyberrange/rangesim/pkg/cli"
	"github.com/cyberrange/rangesim/pkg/output"
	"github.com/cyberrange/rangesim/pkg/sim"
	"github.com/cyberrange/rangesim/pkg/spec"
)

// newRunCmd builds "rangesim run", the scenario-runner loop grounded on
// the teacher's cmd/newtest "start" command (deploy once, iterate steps,
// merge results, never abort the run on one step's failure) — here there
// are no scripted/learning agents wired into the core (spec.md's
// "Scripted-agent interface (hooks only)"), so a bare run drives the
// configured episode length with no actions applied, exercising every
// phase but the agent-decision one, and is useful for smoke-testing a
// scenario document end to end before handing it to a real RL loop.
func newRunCmd() *cobra.Command {
	var (
		ticks     int
		outputDir string
		redisAddr string
		quiet     bool
	)

	cmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "Drive a scenario for its configured episode length",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveScenarioPath(args)
			if err != nil {
				return err
			}

			s, err := spec.NewLoader(path).Load()
			if err != nil {
				return fmt.Errorf("loading scenario: %w", err)
			}
			if ticks > 0 {
				s.EpisodeLength = ticks
			}
			if outputDir == "" {
				outputDir = app.settings.GetOutputDir()
			}
			if redisAddr == "" {
				redisAddr = app.settings.RedisAddr
			}

			sink, closeSink, err := buildSink(outputDir, redisAddr)
			if err != nil {
				return err
			}
			defer closeSink()

			auditLogger, err := audit.NewFileLogger(
				app.settings.GetAuditLogPath(outputDir),
				audit.RotationConfig{
					MaxSize:    int64(app.settings.GetAuditMaxSizeMB()) * 1024 * 1024,
					MaxBackups: app.settings.GetAuditMaxBackups(),
				},
			)
			if err != nil {
				return fmt.Errorf("opening audit log: %w", err)
			}
			defer auditLogger.Close()

			driver := sim.NewDriver(auditLogger, sink)
			if _, err := driver.Reset(s); err != nil {
				return fmt.Errorf("resetting simulation: %w", err)
			}
			sink.TopologySnapshot(driver.TopologyDOT())

			table := cli.NewTable("TICK", "REWARD", "NOTES")
			var totalReward float64
			for t := 0; t < s.EpisodeLength; t++ {
				_, reward, done, truncated, info := driver.Step(map[string]sim.Action{})
				totalReward += reward

				if !quiet {
					notes := summarizeFailures(info)
					table.Row(fmt.Sprintf("%d", info.Tick), fmt.Sprintf("%.3f", reward), notes)
				}
				if done || truncated {
					break
				}
			}
			if !quiet {
				table.Flush()
			}

			fmt.Printf("\nepisode complete: %d ticks, total reward %.3f\n", s.EpisodeLength, totalReward)
			fmt.Printf("output written to %s\n", outputDir)
			return nil
		},
	}

	cmd.Flags().IntVar(&ticks, "ticks", 0, "override the scenario's episode_length")
	cmd.Flags().StringVar(&outputDir, "output", "", "output directory (default: settings output_dir)")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "also publish events to this Redis address")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress the per-tick reward table")

	return cmd
}

// buildSink assembles the FileSink (always) plus an optional RedisSink
// (when addr is set) into a single output.Sink, matching the teacher's
// "each collaborator independently optional" convention.
func buildSink(outputDir, redisAddr string) (output.Sink, func(), error) {
	fileSink, err := output.NewFileSink(outputDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening output directory: %w", err)
	}

	if redisAddr == "" {
		return fileSink, func() { fileSink.Close() }, nil
	}

	redisSink := output.NewRedisSink(redisAddr)
	if err := redisSink.Connect(); err != nil {
		fileSink.Close()
		return nil, nil, fmt.Errorf("connecting to redis at %s: %w", redisAddr, err)
	}

	multi := output.MultiSink{fileSink, redisSink}
	return multi, func() {
		fileSink.Close()
		redisSink.Close()
	}, nil
}

// summarizeFailures renders a one-line note for any non-success dispatch
// in info, so a smoke-test run surfaces unreachable/failed requests
// without dumping the full StepInfo every tick.
func summarizeFailures(info *sim.StepInfo) string {
	note := ""
	for agent, resp := range info.Responses {
		if resp.Outcome == "success" {
			continue
		}
		if note != "" {
			note += "; "
		}
		note += fmt.Sprintf("%s: %s (%s)", agent, resp.Outcome, resp.Reason)
	}
	return note
}
