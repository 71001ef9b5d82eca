package sim

import (
	"fmt"
	"sort"

	"github.com/cyberrange/rangesim/pkg/audit"
	"github.com/cyberrange/rangesim/pkg/fs"
	"github.com/cyberrange/rangesim/pkg/network"
	"github.com/cyberrange/rangesim/pkg/obs"
	"github.com/cyberrange/rangesim/pkg/output"
	"github.com/cyberrange/rangesim/pkg/request"
	"github.com/cyberrange/rangesim/pkg/reward"
	"github.com/cyberrange/rangesim/pkg/software"
	"github.com/cyberrange/rangesim/pkg/spec"
)

// Action is one agent's chosen move for a tick: a dotted request-dispatch
// path, with any positional arguments (ACL rule position, countdown
// duration, ...) appended as trailing segments the way request.Dispatch
// expects (spec.md §4.1's path examples, e.g.
// "network.node.host1.file_system.folder.reports.scan.5").
type Action struct {
	Path string
}

// StepInfo carries everything about a tick beyond the observation/reward
// scalar a gym-style caller expects: every agent's dispatch response and
// per-component reward breakdown, for logging/debugging.
type StepInfo struct {
	Tick      int
	Responses map[string]request.Response
	Rewards   map[string]float64
	Breakdown map[string]map[string]float64
}

// Driver owns the clock, the live network, and the agent roster, and
// drives the fixed seven-phase tick order spec.md §4.1 prescribes. It is
// grounded on the teacher's scenario-runner loop (originally
// pkg/newtest/runner.go: deploy once, iterate steps, merge results, never
// abort the run on one step's failure), retargeted from "drive a real lab
// through a test plan" to "drive an in-process model through RL ticks".
type Driver struct {
	scenario  *spec.Scenario
	net       *network.Network
	root      *request.Manager
	schema    *obs.Schema
	actionMap []string

	tick    int
	episode int

	rewardAgg *reward.Aggregator
	logger    audit.Logger
	sink      output.Sink
}

// NewDriver returns a driver with no network loaded yet; call Reset to
// build one from a scenario.
func NewDriver(logger audit.Logger, sink output.Sink) *Driver {
	return &Driver{rewardAgg: reward.NewAggregator(), logger: logger, sink: sink}
}

// Reset builds a fresh network from cfg, resets the tick counter, and
// returns the first observation.
func (d *Driver) Reset(cfg *spec.Scenario) (*obs.Snapshot, error) {
	net, err := Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("building scenario: %w", err)
	}
	d.scenario = cfg
	d.net = net
	d.root = net.BuildRequestManager()
	d.schema = obs.BuildSchema(net)
	d.actionMap = buildActionMap(net)
	d.tick = 0
	d.episode++
	return obs.Observe(net, d.schema), nil
}

// Schema returns the fixed per-episode observation shape, valid after
// Reset.
func (d *Driver) Schema() *obs.Schema {
	return d.schema
}

// ActionMap returns the stable, per-episode list of dispatch paths an
// action index refers to, built at Reset from the node/NIC/software/file
// indices present in the scenario (spec.md §6: "a discrete index into an
// action map generated at reset time"). ActionMask reports, index for
// index, whether each entry would currently succeed.
func (d *Driver) ActionMap() []string {
	return d.actionMap
}

// ActionMask reports, for agentName and in ActionMap order, whether
// dispatching each action path would currently return Success, without
// performing it (spec.md §6's third mandatory RL-adapter function
// alongside reset/step). Every agent shares the same action map; an agent
// is not otherwise distinguished here because nothing in the request tree
// scopes a handler to one agent's identity.
func (d *Driver) ActionMask(agentName string) []bool {
	mask := make([]bool, len(d.actionMap))
	for i, path := range d.actionMap {
		mask[i] = request.CanSucceed(d.root, path)
	}
	return mask
}

// buildActionMap enumerates every zero-argument action path the topology
// currently exposes, in deterministic node/NIC/software/file order
// matching obs.BuildSchema's traversal so the action map and observation
// schema are derived the same way (spec.md §6). Verbs that require
// positional arguments beyond the path itself (ACL rule edits, ping) are
// not enumerable as a fixed discrete index and are reached only through
// the request tree directly, not through the action map.
func buildActionMap(net *network.Network) []string {
	var paths []string
	for _, hostname := range net.SortedNodeHostnames() {
		n, _ := net.Node(hostname)
		base := request.Path("network", "node", hostname)

		for _, verb := range []string{"power_on", "power_off", "reset"} {
			paths = append(paths, request.Path(base, "os", verb))
		}

		for _, ifaceName := range n.SortedNICNames() {
			for _, verb := range []string{"enable", "disable"} {
				paths = append(paths, request.Path(base, "nic", ifaceName, verb))
			}
		}

		for _, name := range sortedSoftwareNames(n) {
			inst, _ := n.SoftwareManager.Get(name)
			var kindSeg string
			var verbs []string
			switch inst.Kind {
			case software.KindService:
				kindSeg = "service"
				verbs = []string{"start", "stop", "pause", "resume", "restart", "disable", "enable", "patch", "fix", "scan", "reveal_to_red"}
			case software.KindApplication:
				kindSeg = "application"
				verbs = []string{"run", "close", "scan", "reveal_to_red"}
			case software.KindProcess:
				kindSeg = "process"
				verbs = []string{"execute", "kill", "scan", "reveal_to_red"}
			default:
				continue
			}
			for _, verb := range verbs {
				paths = append(paths, request.Path(base, kindSeg, name, verb))
			}
		}

		for _, folderName := range sortedFolderNames(n) {
			fo, _ := n.FileSystem.GetFolder(folderName)
			for _, verb := range []string{"scan", "reveal_to_red", "restore"} {
				paths = append(paths, request.Path(base, "file_system", "folder", folderName, verb))
			}
			for _, fileName := range sortedFileNames(fo) {
				for _, verb := range []string{"scan", "corrupt", "repair", "destroy", "reveal_to_red", "access"} {
					paths = append(paths, request.Path(base, "file_system", "file", folderName, fileName, verb))
				}
			}
		}
	}
	return paths
}

// Step applies one action per named agent (in the scenario's declared
// agent order, spec.md §4.1 phase 2/3), advances the simulation one tick,
// and returns the next observation, this tick's per-agent total reward
// summed across agents (the scalar a single-agent gym wrapper expects),
// whether the episode has terminated, whether it was truncated by the
// step budget, and a StepInfo with the full per-agent detail.
func (d *Driver) Step(actions map[string]Action) (*obs.Snapshot, float64, bool, bool, *StepInfo) {
	d.net.ResetTick() // phase 1: pre-timestep

	info := &StepInfo{
		Tick:      d.tick,
		Responses: make(map[string]request.Response),
		Rewards:   make(map[string]float64),
		Breakdown: make(map[string]map[string]float64),
	}

	for _, agentName := range d.orderedAgentNames() { // phase 2/3
		action, ok := actions[agentName]
		if !ok {
			continue
		}
		resp := request.Dispatch(d.root, action.Path)
		info.Responses[agentName] = resp

		if d.logger != nil {
			ev := audit.NewEvent(d.tick, agentName, targetHostname(action.Path)).
				WithPath(action.Path).
				WithOutcome(auditOutcome(resp.Outcome), resp.Reason)
			_ = d.logger.Log(ev)
		}
		if d.sink != nil {
			d.sink.ActionRecord(d.tick, agentName, action.Path, resp)
		}
	}

	d.net.ApplyTimestep() // phase 4

	snap := obs.Observe(d.net, d.schema) // phase 5

	var total float64
	for _, a := range d.scenario.Agents { // phase 6
		r, breakdown := d.rewardAgg.Score(d.net, a.RewardWeights)
		info.Rewards[a.Name] = r
		info.Breakdown[a.Name] = breakdown
		total += r
		if d.sink != nil {
			d.sink.RewardSample(d.episode, d.tick, r)
		}
	}

	d.tick++ // phase 7
	done := false
	truncated := d.tick >= d.scenario.EpisodeLength

	return snap, total, done, truncated, info
}

// orderedAgentNames returns agent names in the scenario's declared order
// (spec.md §4.1 phase 2: "the order of agents is the declared configuration
// order").
func (d *Driver) orderedAgentNames() []string {
	names := make([]string, 0, len(d.scenario.Agents))
	for _, a := range d.scenario.Agents {
		names = append(names, a.Name)
	}
	return names
}

// targetHostname extracts the hostname segment from a
// "network.node.<hostname>...." dispatch path, for the audit event's Node
// field. Paths that don't follow that shape (unreachable dispatches
// against a malformed action) fall back to the whole path.
func targetHostname(path string) string {
	const prefix = "network.node."
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return path
	}
	rest := path[len(prefix):]
	for i, c := range rest {
		if c == '.' {
			return rest[:i]
		}
	}
	return rest
}

// sortedSoftwareNames, sortedFolderNames, and sortedFileNames give
// buildActionMap the same deterministic traversal order obs.BuildSchema
// uses, so the action map and observation schema enumerate the same
// entities in the same order.
func sortedSoftwareNames(n *network.Node) []string {
	names := make([]string, 0, len(n.SoftwareManager.All()))
	for name := range n.SoftwareManager.All() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedFolderNames(n *network.Node) []string {
	names := make([]string, 0, len(n.FileSystem.Folders))
	for name := range n.FileSystem.Folders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedFileNames(fo *fs.Folder) []string {
	names := make([]string, 0, len(fo.Files))
	for name := range fo.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func auditOutcome(o request.Outcome) audit.Outcome {
	switch o {
	case request.Success:
		return audit.OutcomeSuccess
	case request.Failure:
		return audit.OutcomeFailure
	default:
		return audit.OutcomeUnreachable
	}
}

// TopologyDOT renders the current network as a graphviz DOT document, for
// output.Sink.TopologySnapshot consumers (spec.md §6). Edges are derived by
// walking each node's NICs rather than Link's endpoints directly, since a
// NIC does not expose its owning hostname.
func (d *Driver) TopologyDOT() string {
	hostnames := d.net.SortedNodeHostnames()

	ownerOf := make(map[network.NIC]string)
	for _, h := range hostnames {
		n, _ := d.net.Node(h)
		for _, nic := range n.NICs() {
			ownerOf[nic] = h
		}
	}

	out := "graph rangesim {\n"
	for _, h := range hostnames {
		out += fmt.Sprintf("  %q;\n", h)
	}
	seen := make(map[*network.Link]bool)
	for _, h := range hostnames {
		n, _ := d.net.Node(h)
		for _, nic := range n.NICs() {
			link := nic.Link()
			if link == nil || seen[link] {
				continue
			}
			seen[link] = true
			other := link.OtherEnd(nic)
			out += fmt.Sprintf("  %q -- %q;\n", h, ownerOf[other])
		}
	}
	out += "}\n"
	return out
}
