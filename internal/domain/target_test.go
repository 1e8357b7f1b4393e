package domain

import (
	"errors"
	"testing"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		id   string
		want Target
	}{
		{id: "foundation_0", want: FoundationTarget(0)},
		{id: "foundation_12", want: FoundationTarget(12)},
		{id: "visible_slot_alice_2", want: VisibleSlotTarget("alice", 2)},
		{id: "visible_slot_user_with_underscores_1", want: VisibleSlotTarget("user_with_underscores", 1)},
		{id: "blitz_bob", want: BlitzTarget("bob")},
		{id: "recycle_bob", want: RecycleTarget("bob")},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := ParseTarget(tt.id)
			if err != nil {
				t.Fatalf("ParseTarget(%q) error = %v", tt.id, err)
			}
			if got != tt.want {
				t.Fatalf("ParseTarget(%q) = %+v, want %+v", tt.id, got, tt.want)
			}
			if got.ID() != tt.id {
				t.Fatalf("ID() = %q, want %q", got.ID(), tt.id)
			}
		})
	}
}

func TestParseTargetRejects(t *testing.T) {
	for _, id := range []string{"", "foundation_", "foundation_-1", "foundation_x", "visible_slot_alice", "visible_slot__1", "visible_slot_alice_x", "blitz_", "recycle_", "stock_alice"} {
		if _, err := ParseTarget(id); !errors.Is(err, ErrUnknownTarget) {
			t.Errorf("ParseTarget(%q) error = %v, want ErrUnknownTarget", id, err)
		}
	}
}

func TestTargetKindString(t *testing.T) {
	tests := map[TargetKind]string{
		TargetFoundation:  "foundation",
		TargetVisibleSlot: "visible_slot",
		TargetBlitz:       "blitz",
		TargetRecycle:     "recycle",
		TargetNearestSlot: "nearest_slot",
		TargetKind(0):     "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("TargetKind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
	if got := NearestSlotTarget("alice").ID(); got != "visible_slot_alice" {
		t.Errorf("NearestSlotTarget ID = %q", got)
	}
}
