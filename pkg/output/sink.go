// Package output defines the Sink collaborator every rangesim driver
// writes episode telemetry to, and the two concrete implementations that
// ship with it (spec.md §6 "External interfaces"): FileSink, an
// append-only local writer, and RedisSink, a pub/sub mirror for an
// external process (e.g. a Python gym wrapper) to tail. Neither is ever
// consulted for a simulation decision — both are write-only observers.
package output

import (
	"github.com/sirupsen/logrus"

	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/request"
)

// Sink receives structured events at fixed points in the tick cycle.
type Sink interface {
	RewardSample(episode int, tick int, reward float64)
	ActionRecord(tick int, agent string, path string, resp request.Response)
	SysLog(node string, entry *logrus.Entry)
	PCAPFrame(iface string, frame *model.Frame)
	TopologySnapshot(dot string)
}

// MultiSink fans every event out to each of its members in order, letting
// a driver write to a FileSink and a RedisSink simultaneously without
// either implementation knowing about the other.
type MultiSink []Sink

func (m MultiSink) RewardSample(episode, tick int, reward float64) {
	for _, s := range m {
		s.RewardSample(episode, tick, reward)
	}
}

func (m MultiSink) ActionRecord(tick int, agent, path string, resp request.Response) {
	for _, s := range m {
		s.ActionRecord(tick, agent, path, resp)
	}
}

func (m MultiSink) SysLog(node string, entry *logrus.Entry) {
	for _, s := range m {
		s.SysLog(node, entry)
	}
}

func (m MultiSink) PCAPFrame(iface string, frame *model.Frame) {
	for _, s := range m {
		s.PCAPFrame(iface, frame)
	}
}

func (m MultiSink) TopologySnapshot(dot string) {
	for _, s := range m {
		s.TopologySnapshot(dot)
	}
}
