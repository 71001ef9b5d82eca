package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyberrange/rangesim/pkg/cli"
	"github.com/cyberrange/rangesim/pkg/obs"
	"github.com/cyberrange/rangesim/pkg/sim"
	"github.com/cyberrange/rangesim/pkg/spec"
)

// newShowCmd builds "rangesim show", which builds the topology a scenario
// describes without stepping it and prints it the way cmd/newtron's
// "show" prints a device's interface/service summary — here a node table
// plus the fixed observation shape computed for the episode (spec.md
// §4.9's "stable across the episode" schema).
func newShowCmd() *cobra.Command {
	var dotOut bool

	cmd := &cobra.Command{
		Use:   "show [scenario.yaml]",
		Short: "Build a scenario's topology and print nodes, links, and observation shape",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveScenarioPath(args)
			if err != nil {
				return err
			}

			s, err := spec.NewLoader(path).Load()
			if err != nil {
				return fmt.Errorf("loading scenario: %w", err)
			}

			net, err := sim.Build(s)
			if err != nil {
				return fmt.Errorf("building scenario: %w", err)
			}

			fmt.Printf("%s  %s\n\n", cli.Bold(s.Name), fmt.Sprintf("(%d ticks, %d agents)", s.EpisodeLength, len(s.Agents)))

			nodeTable := cli.NewTable("HOSTNAME", "KIND", "STATE", "INTERFACES", "SOFTWARE")
			for _, hostname := range net.SortedNodeHostnames() {
				n, _ := net.Node(hostname)
				nodeTable.Row(
					hostname,
					n.Kind.String(),
					formatNodeState(n.OperatingState.String()),
					fmt.Sprintf("%d", len(n.NICs())),
					fmt.Sprintf("%d", len(n.SoftwareManager.All())),
				)
			}
			nodeTable.Flush()

			fmt.Println()
			linkTable := cli.NewTable("BANDWIDTH (Mbps)", "WIRELESS")
			for _, l := range net.Links {
				wireless := "no"
				if l.Wireless {
					wireless = l.WirelessFreqID
				}
				linkTable.Row(fmt.Sprintf("%.1f", l.BandwidthMbps), wireless)
			}
			linkTable.Flush()

			schema := obs.BuildSchema(net)
			fmt.Printf("\nobservation shape: %d slots\n", len(schema.Slots))

			if dotOut {
				driver := sim.NewDriver(nil, nil)
				if _, err := driver.Reset(s); err != nil {
					return fmt.Errorf("rendering topology: %w", err)
				}
				fmt.Println()
				fmt.Print(driver.TopologyDOT())
			}

			return nil
		},
	}
	cmd.Flags().BoolVar(&dotOut, "dot", false, "also print the topology as a graphviz DOT document")
	return cmd
}

func formatNodeState(state string) string {
	switch state {
	case "on":
		return cli.Green(state)
	case "off":
		return cli.Red(state)
	default:
		return cli.Yellow(state)
	}
}
