// Package spec defines the YAML scenario document schema and the loader
// that resolves it into a validated in-memory Scenario (spec.md §6
// Configuration input), following the teacher's two-phase load-then-resolve
// pattern (pkg/spec/loader.go): global defaults < node-type defaults <
// per-node overrides.
package spec

// Scenario is the fully resolved, validated configuration for one episode:
// the topology to build plus the agent/observation/IO settings the driver
// needs to run it.
type Scenario struct {
	Name          string         `yaml:"name"`
	EpisodeLength int            `yaml:"episode_length"`
	Nodes         []NodeSpec     `yaml:"nodes"`
	Links         []LinkSpec     `yaml:"links"`
	Agents        []AgentSpec    `yaml:"agents"`
	Observation   ObservationSpec `yaml:"observation"`
	IO            IOSpec         `yaml:"io"`

	Defaults NodeDefaults `yaml:"defaults"`
}

// NodeDefaults carries global-then-per-kind fallback values merged into
// each NodeSpec that omits them, the resolver's "global < node-type-default
// < per-node override" chain.
type NodeDefaults struct {
	StartUpTicks        int            `yaml:"start_up_ticks"`
	ShutDownTicks       int            `yaml:"shut_down_ticks"`
	SessionTimeoutTicks int            `yaml:"session_timeout_ticks"`
	PerKind             map[string]KindDefaults `yaml:"per_kind"`
}

// KindDefaults overrides NodeDefaults for one specific NodeKind name.
type KindDefaults struct {
	StartUpTicks        *int `yaml:"start_up_ticks"`
	ShutDownTicks       *int `yaml:"shut_down_ticks"`
	SessionTimeoutTicks *int `yaml:"session_timeout_ticks"`
}

// NodeSpec declares one node in the topology.
type NodeSpec struct {
	Hostname string `yaml:"hostname"`
	Kind     string `yaml:"kind"` // host|server|switch|router|wireless_router|firewall

	StartUpTicks        *int `yaml:"start_up_ticks"`
	ShutDownTicks       *int `yaml:"shut_down_ticks"`
	SessionTimeoutTicks *int `yaml:"session_timeout_ticks"`

	Interfaces []InterfaceSpec `yaml:"interfaces"`
	// InterfaceRange bulk-declares switch ports via util.ExpandInterfaceRange
	// shorthand (e.g. "Ethernet0-4"), merged alongside Interfaces so a switch
	// with many uniform ports need not enumerate each one.
	InterfaceRange string          `yaml:"interface_range"`
	Folders    []FolderSpec    `yaml:"folders"`
	Services   []ServiceSpec   `yaml:"services"`
	Applications []ApplicationSpec `yaml:"applications"`
	Processes  []ProcessSpec   `yaml:"processes"`

	ACL    []ACLRuleSpec  `yaml:"acl"`
	Routes []RouteSpec    `yaml:"routes"`
	DefaultRoute string   `yaml:"default_route"`

	PoweredOn bool `yaml:"powered_on"`
}

// InterfaceSpec declares one NIC. Switch ports only need Index; host/router
// interfaces additionally need IP/Mask.
type InterfaceSpec struct {
	Name  string `yaml:"name"`
	MAC   string `yaml:"mac"`
	IP    string `yaml:"ip"`
	Mask  string `yaml:"mask"`
	Index int    `yaml:"index"`
}

// FolderSpec declares a folder and the files seeded into it.
type FolderSpec struct {
	Name  string   `yaml:"name"`
	Files []string `yaml:"files"`
}

// ServiceSpec configures one installed Service.
type ServiceSpec struct {
	Name            string `yaml:"name"`
	RestartDuration int    `yaml:"restart_duration"`
	MaxSessions     int    `yaml:"max_sessions"`
	ListenOnPorts   []int  `yaml:"listen_on_ports"`
	// Ports is shorthand for ListenOnPorts via util.ExpandRange (e.g.
	// "80,443,1000-1010"), merged into it at build time.
	Ports           string `yaml:"ports"`
	PatchingDuration int   `yaml:"patching_duration"`
	FixingDuration  int    `yaml:"fixing_duration"`
	Criticality     int    `yaml:"criticality"`
}

// ApplicationSpec configures one installed Application.
type ApplicationSpec struct {
	Name             string `yaml:"name"`
	Criticality      int    `yaml:"criticality"`
	PatchingDuration int    `yaml:"patching_duration"`
}

// ProcessSpec configures one installed Process (the supplemented fire-and-
// forget software kind).
type ProcessSpec struct {
	Name        string `yaml:"name"`
	Criticality int    `yaml:"criticality"`
}

// ACLRuleSpec declares one ACL rule in priority order.
type ACLRuleSpec struct {
	Action          string `yaml:"action"` // permit|deny
	SrcIP           string `yaml:"src_ip"`
	SrcWildcardMask string `yaml:"src_wildcard_mask"`
	DstIP           string `yaml:"dst_ip"`
	DstWildcardMask string `yaml:"dst_wildcard_mask"`
	Protocol        string `yaml:"protocol"`
	SrcPort         int    `yaml:"src_port"`
	DstPort         int    `yaml:"dst_port"`
}

// RouteSpec declares one static route.
type RouteSpec struct {
	Network   string  `yaml:"network"` // CIDR
	NextHopIP string  `yaml:"next_hop_ip"`
	Metric    float64 `yaml:"metric"`
}

// LinkSpec connects two node interfaces.
type LinkSpec struct {
	NodeA         string  `yaml:"node_a"`
	InterfaceA    string  `yaml:"interface_a"`
	NodeB         string  `yaml:"node_b"`
	InterfaceB    string  `yaml:"interface_b"`
	BandwidthMbps float64 `yaml:"bandwidth_mbps"`

	Wireless      bool    `yaml:"wireless"`
	FrequencyID   string  `yaml:"frequency_id"`
	FrequencyCapMbps float64 `yaml:"frequency_cap_mbps"`
}

// AgentSpec declares one RL agent and the reward weights it scores against.
type AgentSpec struct {
	Name          string             `yaml:"name"`
	Kind          string             `yaml:"kind"` // green|red
	RewardWeights map[string]float64 `yaml:"reward_weights"`
}

// ObservationSpec holds the scenario document's observation settings
// (spec.md §4.9). pkg/obs does not read it: every node is encoded, and the
// traffic-bucket count and login cap are the constants in pkg/obs.
type ObservationSpec struct {
	IncludeNodes    []string `yaml:"include_nodes"`
	TrafficBuckets  int      `yaml:"traffic_buckets"`
	MaxLoginsTracked int     `yaml:"max_logins_tracked"`
}

// IOSpec holds the scenario document's IO settings. No package reads these
// fields; the driver writes to whatever output.Sink its caller passes in.
type IOSpec struct {
	OutputDir  string `yaml:"output_dir"`
	RedisAddr  string `yaml:"redis_addr"`
	EnablePCAP bool   `yaml:"enable_pcap"`
}
