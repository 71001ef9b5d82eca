// Package reward computes one agent's scalar reward for a tick from the
// live network.Network state, using a small catalogue of named components
// combined by the weights the scenario document assigns per agent
// (spec.md §4.9's "weighted sum of named components", grounded on the
// original simulator's reward function registry,
// original_source/.../rewards/reward_function.py).
package reward

import (
	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/network"
	"github.com/cyberrange/rangesim/pkg/software"
)

// Component computes one named reward contribution in [-1, 1] from the
// current network state, unweighted.
type Component func(net *network.Network) float64

// Aggregator combines a fixed catalogue of named components into one
// scalar per agent, using that agent's configured weights. A component
// with no weight is neither computed nor reported in the breakdown,
// matching the teacher's "declare only what you weight" convention.
type Aggregator struct {
	components map[string]Component
}

// NewAggregator returns an aggregator pre-loaded with the default
// component catalogue (spec.md §4.9): availability of green-critical
// software, integrity of protected files, and confidentiality (inverse of
// how much has been revealed to a red agent).
func NewAggregator() *Aggregator {
	a := &Aggregator{components: make(map[string]Component)}
	a.Register("availability", Availability)
	a.Register("integrity", Integrity)
	a.Register("confidentiality", Confidentiality)
	return a
}

// Register adds or replaces a named component.
func (a *Aggregator) Register(name string, c Component) {
	a.components[name] = c
}

// Score returns the weighted sum of every component named in weights,
// plus a per-component breakdown map (reported in sim.StepInfo.Breakdown).
func (a *Aggregator) Score(net *network.Network, weights map[string]float64) (total float64, breakdown map[string]float64) {
	breakdown = make(map[string]float64, len(weights))
	for name, weight := range weights {
		c, ok := a.components[name]
		if !ok {
			continue
		}
		value := c(net)
		breakdown[name] = value
		total += weight * value
	}
	return total, breakdown
}

// Availability scores the fraction of installed software instances
// currently in a healthy (GOOD), running/active state (spec.md §4.9's
// "availability of green objectives").
func Availability(net *network.Network) float64 {
	var total, healthy int
	for _, n := range net.Nodes() {
		for _, inst := range n.SoftwareManager.All() {
			total++
			if instanceHealthGood(inst) {
				healthy++
			}
		}
	}
	if total == 0 {
		return 1
	}
	return float64(healthy) / float64(total)
}

func instanceHealthGood(inst *software.Instance) bool {
	switch inst.Kind {
	case software.KindService:
		return inst.Service.HealthStateActual == model.SoftwareGood
	case software.KindApplication:
		return inst.Application.HealthStateActual == model.SoftwareGood
	case software.KindProcess:
		return inst.Process.HealthStateActual == model.SoftwareGood
	}
	return false
}

// Integrity scores the fraction of live (non-deleted) files across every
// node's file system that are in GOOD health, weighting a destroyed file
// the same as a corrupt one (both are integrity violations).
func Integrity(net *network.Network) float64 {
	var total, good int
	for _, n := range net.Nodes() {
		for _, folder := range n.FileSystem.Folders {
			for _, f := range folder.Files {
				total++
				if f.HealthStatus == model.FileGood {
					good++
				}
			}
		}
	}
	if total == 0 {
		return 1
	}
	return float64(good) / float64(total)
}

// Confidentiality scores the fraction of software/files that have NOT been
// revealed to a red agent, an inverse proxy for how much of the topology's
// internals an attacker has learned (spec.md §4.9's confidentiality
// component, no direct original_source equivalent: the original scores
// confidentiality implicitly via per-node compromise state, generalized
// here into the same revealed-to-red bookkeeping invariant 5 tracks for
// scans).
func Confidentiality(net *network.Network) float64 {
	var total, hidden int
	for _, n := range net.Nodes() {
		for _, inst := range n.SoftwareManager.All() {
			total++
			if !revealedToRed(inst) {
				hidden++
			}
		}
		for _, folder := range n.FileSystem.Folders {
			for _, f := range folder.Files {
				total++
				if !f.RevealedToRed {
					hidden++
				}
			}
		}
	}
	if total == 0 {
		return 1
	}
	return float64(hidden) / float64(total)
}

func revealedToRed(inst *software.Instance) bool {
	switch inst.Kind {
	case software.KindService:
		return inst.Service.RevealedToRed
	case software.KindApplication:
		return inst.Application.RevealedToRed
	case software.KindProcess:
		return inst.Process.RevealedToRed
	}
	return false
}
