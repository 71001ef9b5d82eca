// Package obs turns a live network.Network into the bounded, flat integer
// observation an RL agent consumes (spec.md §4.9): a Schema computed once
// per episode describing each slot's meaning, and a Snapshot of values
// produced every tick against that fixed shape.
package obs

import (
	"fmt"
	"sort"

	"github.com/cyberrange/rangesim/pkg/fs"
	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/network"
	"github.com/cyberrange/rangesim/pkg/software"
)

// Slot describes one position in a Snapshot: which entity path it encodes
// and how many discrete buckets its value ranges over.
type Slot struct {
	Path    string
	Buckets int
}

// Schema is the stable, per-episode description of a Snapshot's shape. It
// never changes mid-episode (spec.md's "stable across the episode"
// requirement), so agents can bind to slot indices once at reset.
type Schema struct {
	Slots []Slot
}

// Snapshot is one tick's bounded integer observation, one value per Schema
// slot, in the same order.
type Snapshot struct {
	Values []int32
}

// trafficBuckets is the number of discrete load levels a NIC's current_load
// fraction is bucketed into (spec.md §4.9).
const trafficBuckets = 8

// maxLoginsTracked caps the login-count observation bucket so it stays
// bounded regardless of how many sessions a node accumulates.
const maxLoginsTracked = 10

// BuildSchema derives the fixed slot layout for net, iterating nodes and
// their NICs/software/folders in sorted hostname order so the schema (and
// therefore every Snapshot built against it) is deterministic.
func BuildSchema(net *network.Network) *Schema {
	schema := &Schema{}
	for _, hostname := range net.SortedNodeHostnames() {
		n, _ := net.Node(hostname)
		schema.Slots = append(schema.Slots, Slot{Path: hostname + "/operating_state", Buckets: 5})

		for _, ifaceName := range n.SortedNICNames() {
			schema.Slots = append(schema.Slots, Slot{Path: hostname + "/" + ifaceName + "/up", Buckets: 2})
			schema.Slots = append(schema.Slots, Slot{Path: hostname + "/" + ifaceName + "/load", Buckets: trafficBuckets})
		}

		for _, name := range sortedSoftwareNames(n) {
			schema.Slots = append(schema.Slots, Slot{Path: hostname + "/software/" + name + "/health", Buckets: 5})
		}

		for _, folderName := range sortedFolderNames(n) {
			schema.Slots = append(schema.Slots, Slot{Path: hostname + "/fs/" + folderName + "/health", Buckets: 3})
		}

		schema.Slots = append(schema.Slots, Slot{Path: hostname + "/logins", Buckets: maxLoginsTracked + 1})
	}
	return schema
}

// Observe encodes net's current state against schema into a Snapshot.
func Observe(net *network.Network, schema *Schema) *Snapshot {
	snap := &Snapshot{Values: make([]int32, len(schema.Slots))}
	idx := 0
	for _, hostname := range net.SortedNodeHostnames() {
		n, _ := net.Node(hostname)
		snap.Values[idx] = int32(n.OperatingState)
		idx++

		for _, ifaceName := range n.SortedNICNames() {
			nic, _ := n.NIC(ifaceName)
			if nic.IsEnabled() {
				snap.Values[idx] = 1
			}
			idx++
			snap.Values[idx] = bucketLoad(nic.Link())
			idx++
		}

		for _, name := range sortedSoftwareNames(n) {
			inst, _ := n.SoftwareManager.Get(name)
			snap.Values[idx] = int32(softwareHealth(inst))
			idx++
		}

		for _, folderName := range sortedFolderNames(n) {
			fo, _ := n.FileSystem.GetFolder(folderName)
			snap.Values[idx] = int32(fo.VisibleHealthStatus)
			idx++
		}

		logins := 0
		if n.Accounts != nil {
			logins = n.Accounts.ActiveSessions()
		}
		if logins > maxLoginsTracked {
			logins = maxLoginsTracked
		}
		snap.Values[idx] = int32(logins)
		idx++
	}
	return snap
}

func bucketLoad(l *network.Link) int32 {
	if l == nil || l.BandwidthMbps <= 0 {
		return 0
	}
	frac := l.CurrentLoad / l.BandwidthMbps
	bucket := int32(frac * float64(trafficBuckets))
	if bucket >= trafficBuckets {
		bucket = trafficBuckets - 1
	}
	if bucket < 0 {
		bucket = 0
	}
	return bucket
}

func softwareHealth(inst *software.Instance) model.SoftwareHealthState {
	switch inst.Kind {
	case software.KindService:
		return inst.Service.HealthStateVisible
	case software.KindApplication:
		return inst.Application.HealthStateVisible
	case software.KindProcess:
		return inst.Process.HealthStateVisible
	default:
		return model.SoftwareUnused
	}
}

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

func (s *Snapshot) String() string {
	return fmt.Sprintf("snapshot[%d values]", len(s.Values))
}
