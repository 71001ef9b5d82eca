package spec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cyberrange/rangesim/pkg/util"
)

// Loader reads a scenario YAML document and resolves it into a validated
// Scenario, the same load-then-resolve two-phase shape as the teacher's
// pkg/spec.Loader (Load() then a resolve/validate pass), adapted from
// network/site/platform JSON files to a single scenario YAML document.
type Loader struct {
	path     string
	raw      *Scenario
	resolved *Scenario
}

// NewLoader returns a loader reading the scenario document at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads and parses the YAML document, resolves node-level defaults,
// and validates cross-references, returning the resolved Scenario.
func (l *Loader) Load() (*Scenario, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario yaml: %w", err)
	}
	l.raw = &s

	resolved := s
	resolveDefaults(&resolved)
	l.resolved = &resolved

	if err := validate(&resolved); err != nil {
		return nil, fmt.Errorf("validating scenario: %w", err)
	}

	return l.resolved, nil
}

// resolveDefaults applies the global < per-kind < per-node override chain
// for every node's countdown fields (spec.md §6).
func resolveDefaults(s *Scenario) {
	for i := range s.Nodes {
		n := &s.Nodes[i]

		startUp := s.Defaults.StartUpTicks
		shutDown := s.Defaults.ShutDownTicks
		sessionTimeout := s.Defaults.SessionTimeoutTicks

		if kd, ok := s.Defaults.PerKind[n.Kind]; ok {
			if kd.StartUpTicks != nil {
				startUp = *kd.StartUpTicks
			}
			if kd.ShutDownTicks != nil {
				shutDown = *kd.ShutDownTicks
			}
			if kd.SessionTimeoutTicks != nil {
				sessionTimeout = *kd.SessionTimeoutTicks
			}
		}

		if n.StartUpTicks == nil {
			n.StartUpTicks = &startUp
		}
		if n.ShutDownTicks == nil {
			n.ShutDownTicks = &shutDown
		}
		if n.SessionTimeoutTicks == nil {
			n.SessionTimeoutTicks = &sessionTimeout
		}
	}
}

// validate checks every cross-reference a Scenario makes: link endpoints
// name real nodes/interfaces, ACL actions are well-formed, and the episode
// length is positive. These are spec.md §7 kind-5 invariant violations:
// fatal errors returned from construction, never from a running
// simulation. Structural problems (duplicate/missing hostnames) abort
// immediately, since nothing downstream can be checked meaningfully once
// they hold; everything else accumulates in a util.ValidationBuilder so a
// malformed scenario is reported in one pass instead of one fix-rerun
// cycle per error.
func validate(s *Scenario) error {
	if s.EpisodeLength <= 0 {
		return fmt.Errorf("episode_length must be positive, got %d", s.EpisodeLength)
	}

	hostnames := make(map[string]*NodeSpec, len(s.Nodes))
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.Hostname == "" {
			return fmt.Errorf("node at index %d missing hostname", i)
		}
		if _, dup := hostnames[n.Hostname]; dup {
			return util.NewInUseError(fmt.Sprintf("node hostname %q", n.Hostname), "an earlier node declaration")
		}
		hostnames[n.Hostname] = n
	}

	v := &util.ValidationBuilder{}
	for i, l := range s.Links {
		if err := validateLinkEndpoint(hostnames, l.NodeA, l.InterfaceA); err != nil {
			v.AddErrorf("link %d endpoint A: %s", i, err)
		}
		if err := validateLinkEndpoint(hostnames, l.NodeB, l.InterfaceB); err != nil {
			v.AddErrorf("link %d endpoint B: %s", i, err)
		}
		v.Add(l.BandwidthMbps > 0, fmt.Sprintf("link %d: bandwidth_mbps must be positive", i))
	}

	for _, n := range s.Nodes {
		for i, rule := range n.ACL {
			v.Add(rule.Action == "permit" || rule.Action == "deny",
				fmt.Sprintf("node %s acl rule %d: action must be permit or deny, got %q", n.Hostname, i, rule.Action))
		}
	}

	return v.Build()
}

// validateLinkEndpoint reports a node/interface a link references but the
// scenario never declares as a *util.DependencyError: the link depends on
// that node/interface existing, the same relationship the teacher's
// pkg/util.DependencyError names for a config object requiring another to
// exist first.
func validateLinkEndpoint(hostnames map[string]*NodeSpec, nodeName, ifaceName string) error {
	n, ok := hostnames[nodeName]
	if !ok {
		return util.NewDependencyError("link endpoint", "node", nodeName)
	}
	for _, iface := range n.Interfaces {
		if iface.Name == ifaceName {
			return nil
		}
	}
	if n.InterfaceRange != "" {
		if names, err := util.ExpandInterfaceRange(n.InterfaceRange); err == nil {
			for _, name := range names {
				if name == ifaceName {
					return nil
				}
			}
		}
	}
	return util.NewDependencyError(fmt.Sprintf("link endpoint on node %q", nodeName), "interface", ifaceName)
}
