package model

import (
	"net"
	"testing"
)

func TestACLTable_AddRuleReservesImplicitSlot(t *testing.T) {
	tests := []struct {
		name     string
		maxRules int
		wantOK   []bool
	}{
		{"room for one below max", 3, []bool{true, true, false}},
		{"max_rules=1 leaves zero explicit slots", 1, []bool{false, false}},
		{"max_rules=0 leaves zero explicit slots", 0, []bool{false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := NewACLTable(tt.maxRules)
			for i, want := range tt.wantOK {
				if got := table.CanAddRule(); got != want {
					t.Errorf("insert %d: CanAddRule() = %v, want %v", i, got, want)
				}
				got := table.AddRule(1, &ACLRule{Action: ACLPermit})
				if got != want {
					t.Errorf("insert %d: AddRule() = %v, want %v", i, got, want)
				}
			}
			maxExplicit := tt.maxRules - 1
			if maxExplicit < 0 {
				maxExplicit = 0
			}
			if len(table.Rules) > maxExplicit {
				t.Errorf("explicit rules %d should leave room for the implicit rule within MaxRules %d", len(table.Rules), tt.maxRules)
			}
		})
	}
}

func TestACLTable_RemoveRuleBounds(t *testing.T) {
	table := NewACLTable(4)
	table.AddRule(1, &ACLRule{Action: ACLDeny})

	if table.CanRemoveRule(0) || table.RemoveRule(0) {
		t.Error("position 0 is out of range (1-based) and should be rejected")
	}
	if table.CanRemoveRule(2) || table.RemoveRule(2) {
		t.Error("position past the end should be rejected")
	}
	if !table.CanRemoveRule(1) {
		t.Error("position 1 should be removable")
	}
	if !table.RemoveRule(1) {
		t.Fatal("RemoveRule(1) should succeed")
	}
	if len(table.Rules) != 0 {
		t.Errorf("expected 0 rules after removal, got %d", len(table.Rules))
	}
}

func TestACLTable_EvaluateFallsThroughToImplicitRule(t *testing.T) {
	table := NewACLTable(4)
	table.ImplicitAction = ACLDeny
	table.AddRule(1, &ACLRule{Action: ACLPermit, SrcIP: net.ParseIP("10.0.0.1")})

	noMatch := &Frame{IP: &IPHeader{SrcIP: "10.0.0.2", DstIP: "10.0.0.9"}}
	if action := table.Evaluate(noMatch); action != ACLDeny {
		t.Errorf("Evaluate() = %v, want implicit deny", action)
	}
	if table.ImplicitMatches != 1 {
		t.Errorf("ImplicitMatches = %d, want 1", table.ImplicitMatches)
	}

	match := &Frame{IP: &IPHeader{SrcIP: "10.0.0.1", DstIP: "10.0.0.9"}}
	if action := table.Evaluate(match); action != ACLPermit {
		t.Errorf("Evaluate() = %v, want explicit permit", action)
	}
	if table.Rules[0].MatchCount != 1 {
		t.Errorf("explicit rule MatchCount = %d, want 1", table.Rules[0].MatchCount)
	}

	// Match counts are monotonically non-decreasing: evaluating the same
	// frame again never lowers either counter.
	table.Evaluate(noMatch)
	table.Evaluate(match)
	if table.ImplicitMatches != 2 || table.Rules[0].MatchCount != 2 {
		t.Errorf("match counts should accumulate, got implicit=%d explicit=%d", table.ImplicitMatches, table.Rules[0].MatchCount)
	}
}
