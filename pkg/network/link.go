package network

import (
	"github.com/cyberrange/rangesim/pkg/model"
)

// Link connects exactly two NICs and carries a per-tick bandwidth budget
// (spec.md §4.3). It has no queue: a transmission either fits in the
// remaining bandwidth for the tick or is rejected outright.
type Link struct {
	EndpointA NIC
	EndpointB NIC

	BandwidthMbps  float64
	CurrentLoad    float64
	Up             bool
	Wireless       bool
	WirelessFreqID string // airspace key, only meaningful if Wireless
}

// NewLink connects a and b with the given per-tick bandwidth.
func NewLink(a, b NIC, bandwidthMbps float64) *Link {
	l := &Link{EndpointA: a, EndpointB: b, BandwidthMbps: bandwidthMbps, Up: true}
	a.attachLink(l)
	b.attachLink(l)
	return l
}

// OtherEnd returns the endpoint that is not nic.
func (l *Link) OtherEnd(nic NIC) NIC {
	if l.EndpointA == nic {
		return l.EndpointB
	}
	return l.EndpointA
}

// ResetTick zeroes the per-tick load counter (spec.md's invariant 7).
func (l *Link) ResetTick() {
	l.CurrentLoad = 0
}

// TryReserve accepts the frame's bandwidth cost iff it fits in what remains
// this tick, and iff the link is up and (for wireless links) its
// frequency's airspace budget allows it.
func (l *Link) TryReserve(frame *model.Frame, airspace *Airspace) bool {
	if !l.Up {
		return false
	}
	size := frame.SizeMbits()
	if l.CurrentLoad+size > l.BandwidthMbps {
		return false
	}
	if l.Wireless {
		if airspace == nil || !airspace.TryReserve(l.WirelessFreqID, size) {
			return false
		}
	}
	l.CurrentLoad += size
	return true
}

// Airspace is the shared per-frequency wireless budget accumulated across
// every wireless link transmitting in the current tick (spec.md §4.3).
type Airspace struct {
	capMbps map[string]float64
	load    map[string]float64
}

// NewAirspace returns an airspace with no frequencies registered yet.
func NewAirspace() *Airspace {
	return &Airspace{capMbps: make(map[string]float64), load: make(map[string]float64)}
}

// RegisterFrequency sets (or raises) the capacity for a frequency id.
func (a *Airspace) RegisterFrequency(freqID string, capMbps float64) {
	if existing, ok := a.capMbps[freqID]; !ok || capMbps > existing {
		a.capMbps[freqID] = capMbps
	}
}

// ResetTick zeroes every frequency's accumulated load.
func (a *Airspace) ResetTick() {
	for k := range a.load {
		a.load[k] = 0
	}
}

// TryReserve accepts sizeMbits against freqID's budget if there is room.
func (a *Airspace) TryReserve(freqID string, sizeMbits float64) bool {
	cap, ok := a.capMbps[freqID]
	if !ok {
		return false
	}
	if a.load[freqID]+sizeMbits > cap {
		return false
	}
	a.load[freqID] += sizeMbits
	return true
}
