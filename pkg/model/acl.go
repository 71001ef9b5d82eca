package model

import (
	"net"
)

// ACLAction is the terminal action an ACL rule applies to a matching frame.
type ACLAction string

const (
	ACLPermit ACLAction = "permit"
	ACLDeny   ACLAction = "deny"
)

// ACLRule matches traffic by source/destination IP (optionally a wildcard
// range), protocol, and ports, the way the teacher's ACLRule does for SONiC
// tables, adapted to the router's permit/deny semantics (spec.md §4.5).
// An unset field matches any value, mirroring the wildcard convention.
type ACLRule struct {
	Action ACLAction

	SrcIP           net.IP
	SrcWildcardMask net.IP
	DstIP           net.IP
	DstWildcardMask net.IP

	Protocol IPProtocol // empty matches any protocol
	SrcPort  int        // 0 matches any port
	DstPort  int

	MatchCount int
}

// ipMatchesMaskedRange reports whether ip falls within the range defined by
// base and wildcardMask: bits set in the mask are "don't care".
func ipMatchesMaskedRange(ip, base, wildcardMask net.IP) bool {
	ip4 := ip.To4()
	base4 := base.To4()
	mask4 := wildcardMask.To4()
	if ip4 == nil || base4 == nil || mask4 == nil {
		return false
	}
	for i := 0; i < 4; i++ {
		if ip4[i]&^mask4[i] != base4[i]&^mask4[i] {
			return false
		}
	}
	return true
}

func (r *ACLRule) ipMatches(candidate, ruleIP, wildcard net.IP) bool {
	if ruleIP == nil {
		return true
	}
	if wildcard != nil {
		return ipMatchesMaskedRange(candidate, ruleIP, wildcard)
	}
	return candidate.Equal(ruleIP)
}

// Matches reports whether the frame satisfies every configured criterion
// on this rule, independent of the rule's action.
func (r *ACLRule) Matches(f *Frame) bool {
	if f.IP == nil {
		return false
	}
	srcIP := net.ParseIP(f.IP.SrcIP)
	dstIP := net.ParseIP(f.IP.DstIP)

	if !r.ipMatches(srcIP, r.SrcIP, r.SrcWildcardMask) {
		return false
	}
	if !r.ipMatches(dstIP, r.DstIP, r.DstWildcardMask) {
		return false
	}
	if r.Protocol != "" && r.Protocol != f.IP.Protocol {
		return false
	}

	var srcPort, dstPort int
	switch {
	case f.TCP != nil:
		srcPort, dstPort = f.TCP.SrcPort, f.TCP.DstPort
	case f.UDP != nil:
		srcPort, dstPort = f.UDP.SrcPort, f.UDP.DstPort
	}
	if r.SrcPort != 0 && r.SrcPort != srcPort {
		return false
	}
	if r.DstPort != 0 && r.DstPort != dstPort {
		return false
	}
	return true
}

// ACLTable is an ordered list of rules evaluated top to bottom, with an
// implicit terminal rule occupying the highest position (spec.md §4.5,
// invariant 3). MaxRules - 1 bounds the explicit rule slots, leaving the
// last slot for the implicit rule, which does not itself consume a slot
// but still needs room reserved for it; the implicit rule defaults to
// deny, but a router may configure it to permit (spec.md §4.5 "typically
// DENY").
type ACLTable struct {
	MaxRules         int
	Rules            []*ACLRule // explicit rules in priority order, highest first
	ImplicitAction   ACLAction
	ImplicitMatches  int
}

// NewACLTable returns an empty table with room for maxRules-1 explicit
// rules and the implicit terminal rule set to deny.
func NewACLTable(maxRules int) *ACLTable {
	return &ACLTable{MaxRules: maxRules, ImplicitAction: ACLDeny}
}

// CanAddRule reports whether AddRule would currently find a free explicit
// slot.
func (t *ACLTable) CanAddRule() bool {
	return len(t.Rules) < t.MaxRules-1
}

// AddRule inserts a rule at the given 1-based position, shifting rules at
// or after that position down. Returns false if the table has no free
// explicit slot (spec.md invariant 3: at most MaxRules-1 explicit rules,
// the final slot being reserved for the implicit terminal rule).
func (t *ACLTable) AddRule(position int, rule *ACLRule) bool {
	if !t.CanAddRule() {
		return false
	}
	idx := position - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(t.Rules) {
		idx = len(t.Rules)
	}
	t.Rules = append(t.Rules, nil)
	copy(t.Rules[idx+1:], t.Rules[idx:])
	t.Rules[idx] = rule
	return true
}

// CanRemoveRule reports whether position names a rule RemoveRule could
// delete.
func (t *ACLTable) CanRemoveRule(position int) bool {
	idx := position - 1
	return idx >= 0 && idx < len(t.Rules)
}

// RemoveRule deletes the rule at the given 1-based position.
func (t *ACLTable) RemoveRule(position int) bool {
	if !t.CanRemoveRule(position) {
		return false
	}
	idx := position - 1
	t.Rules = append(t.Rules[:idx], t.Rules[idx+1:]...)
	return true
}

// Evaluate walks the explicit rules in order and returns the action of the
// first match, incrementing that rule's MatchCount. If nothing matches, the
// implicit terminal rule applies and its own match counter is incremented
// (spec.md §8 invariant 5: "every ACL rule match_count is monotonically
// non-decreasing", which includes the implicit rule).
func (t *ACLTable) Evaluate(f *Frame) ACLAction {
	for _, rule := range t.Rules {
		if rule.Matches(f) {
			rule.MatchCount++
			return rule.Action
		}
	}
	t.ImplicitMatches++
	return t.ImplicitAction
}
