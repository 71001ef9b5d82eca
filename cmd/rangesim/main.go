// Rangesim drives the cyber-range simulation core end-to-end: load a
// scenario document, build the network it describes, and step it tick by
// tick, the way the teacher's cmd/newtest drives an E2E test suite against
// real devices — except rangesim's "devices" are entirely in-process
// simulated nodes, so there is no VM orchestration layer underneath.
//
//	rangesim validate scenario.yaml          # parse + resolve, report errors
//	rangesim show scenario.yaml               # print topology and observation shape
//	rangesim run scenario.yaml                # drive an episode, write output
//	rangesim replay scenario.yaml actions.jsonl  # re-apply a recorded action log
//	rangesim shell scenario.yaml hostname     # interactive console onto one node
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyberrange/rangesim/pkg/settings"
	"github.com/cyberrange/rangesim/pkg/util"
	"github.com/cyberrange/rangesim/pkg/version"
)

// App holds CLI state shared across all commands, mirroring the teacher's
// package-level App struct (cmd/newtron/main.go).
type App struct {
	verbose  bool
	settings *settings.Settings
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "rangesim",
	Short:             "Cyber-range RL training-environment simulation core",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Rangesim is a deterministic, step-quantised network simulation core for
reinforcement-learning training: a typed entity graph of nodes/interfaces/
files/software, a layered frame-routing substrate, and a hierarchical
request-dispatch tree scripted agents and learning policies both use to
act on the simulated network.

  rangesim validate scenario.yaml
  rangesim show scenario.yaml
  rangesim run scenario.yaml --ticks 200 --output ./out
  rangesim replay scenario.yaml ./out/actions.jsonl`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		app.settings, err = settings.Load()
		if err != nil {
			util.Logger.Warnf("could not load settings: %v", err)
			app.settings = &settings.Settings{}
		}

		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel(app.settings.GetLogLevel())
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(
		newValidateCmd(),
		newShowCmd(),
		newRunCmd(),
		newReplayCmd(),
		newShellCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				if version.Version == "dev" {
					fmt.Println("rangesim dev build (use 'make build' for version info)")
				} else {
					fmt.Printf("rangesim %s (%s)\n", version.Version, version.GitCommit)
				}
			},
		},
	)
}

// resolveScenarioPath returns args[0] if present, otherwise the
// configured default scenario, erroring if neither is set.
func resolveScenarioPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if app.settings.DefaultScenario != "" {
		return app.settings.DefaultScenario, nil
	}
	return "", fmt.Errorf("no scenario path given and no default_scenario configured")
}
