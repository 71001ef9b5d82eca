package model

import "net"

// RouteEntry is a single static route: a destination subnet, its next hop,
// and a metric used to break ties between overlapping entries (spec.md
// §4.5), grounded on the teacher's route-table rows.
type RouteEntry struct {
	Network    *net.IPNet
	NextHopIP  string
	Metric     float64
}

// RouteTable holds static routes plus an optional default route, and
// resolves a destination IP to the best matching entry by longest-prefix
// match with metric as the tiebreak, falling back to the default route.
type RouteTable struct {
	Routes       []*RouteEntry
	DefaultRoute *RouteEntry
}

// NewRouteTable returns an empty route table.
func NewRouteTable() *RouteTable {
	return &RouteTable{}
}

// AddRoute appends a static route.
func (t *RouteTable) AddRoute(network *net.IPNet, nextHopIP string, metric float64) {
	t.Routes = append(t.Routes, &RouteEntry{Network: network, NextHopIP: nextHopIP, Metric: metric})
}

// SetDefaultRoute installs or updates the default route's next hop.
func (t *RouteTable) SetDefaultRoute(nextHopIP string) {
	if t.DefaultRoute == nil {
		t.DefaultRoute = &RouteEntry{NextHopIP: nextHopIP}
		return
	}
	t.DefaultRoute.NextHopIP = nextHopIP
}

// FindBestRoute returns the most specific route covering ip: the entry with
// the longest matching prefix, breaking ties by lowest metric, falling back
// to the default route if no static entry matches.
func (t *RouteTable) FindBestRoute(ip net.IP) *RouteEntry {
	var best *RouteEntry
	longestPrefix := -1
	lowestMetric := float64(1<<63 - 1)

	for _, route := range t.Routes {
		if route.Network == nil || !route.Network.Contains(ip) {
			continue
		}
		prefixLen, _ := route.Network.Mask.Size()
		if prefixLen > longestPrefix || (prefixLen == longestPrefix && route.Metric < lowestMetric) {
			best = route
			longestPrefix = prefixLen
			lowestMetric = route.Metric
		}
	}

	if best == nil {
		return t.DefaultRoute
	}
	return best
}
