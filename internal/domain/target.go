package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TargetKind discriminates placement targets.
type TargetKind int

const (
	TargetFoundation TargetKind = iota + 1
	TargetVisibleSlot
	TargetBlitz
	TargetRecycle
	// TargetNearestSlot resolves to the empty visible slot closest to the player.
	TargetNearestSlot
)

func (k TargetKind) String() string {
	switch k {
	case TargetFoundation:
		return "foundation"
	case TargetVisibleSlot:
		return "visible_slot"
	case TargetBlitz:
		return "blitz"
	case TargetRecycle:
		return "recycle"
	case TargetNearestSlot:
		return "nearest_slot"
	}
	return "unknown"
}

// Target id prefixes.
const (
	foundationPrefix  = "foundation_"
	visibleSlotPrefix = "visible_slot_"
	blitzPrefix       = "blitz_"
	recyclePrefix     = "recycle_"
)

// ErrUnknownTarget is returned by ParseTarget for ids that match no known pattern.
var ErrUnknownTarget = errors.New("unknown target")

// Target is a placement destination.
type Target struct {
	Kind   TargetKind
	Pile   int    // foundation index
	Player string // owner of a personal target
	Slot   int    // visible slot index
}

func FoundationTarget(index int) Target { return Target{Kind: TargetFoundation, Pile: index} }

func VisibleSlotTarget(playerID string, slot int) Target {
	return Target{Kind: TargetVisibleSlot, Player: playerID, Slot: slot}
}

func BlitzTarget(playerID string) Target   { return Target{Kind: TargetBlitz, Player: playerID} }
func RecycleTarget(playerID string) Target { return Target{Kind: TargetRecycle, Player: playerID} }

func NearestSlotTarget(playerID string) Target {
	return Target{Kind: TargetNearestSlot, Player: playerID}
}

// ID renders the target using the shared naming convention.
func (t Target) ID() string {
	switch t.Kind {
	case TargetFoundation:
		return foundationPrefix + strconv.Itoa(t.Pile)
	case TargetVisibleSlot:
		return fmt.Sprintf("%s%s_%d", visibleSlotPrefix, t.Player, t.Slot)
	case TargetBlitz:
		return blitzPrefix + t.Player
	case TargetRecycle:
		return recyclePrefix + t.Player
	case TargetNearestSlot:
		return visibleSlotPrefix + t.Player
	}
	return ""
}

func (t Target) String() string { return t.ID() }

// ParseTarget decodes a target id such as foundation_2, visible_slot_<player>_1,
// blitz_<player> or recycle_<player>.
func ParseTarget(id string) (Target, error) {
	switch {
	case strings.HasPrefix(id, foundationPrefix):
		n, err := strconv.Atoi(strings.TrimPrefix(id, foundationPrefix))
		if err != nil || n < 0 {
			return Target{}, fmt.Errorf("%w: %q", ErrUnknownTarget, id)
		}
		return FoundationTarget(n), nil
	case strings.HasPrefix(id, visibleSlotPrefix):
		rest := strings.TrimPrefix(id, visibleSlotPrefix)
		i := strings.LastIndexByte(rest, '_')
		if i <= 0 {
			return Target{}, fmt.Errorf("%w: %q", ErrUnknownTarget, id)
		}
		slot, err := strconv.Atoi(rest[i+1:])
		if err != nil || slot < 0 {
			return Target{}, fmt.Errorf("%w: %q", ErrUnknownTarget, id)
		}
		return VisibleSlotTarget(rest[:i], slot), nil
	case strings.HasPrefix(id, blitzPrefix) && len(id) > len(blitzPrefix):
		return BlitzTarget(strings.TrimPrefix(id, blitzPrefix)), nil
	case strings.HasPrefix(id, recyclePrefix) && len(id) > len(recyclePrefix):
		return RecycleTarget(strings.TrimPrefix(id, recyclePrefix)), nil
	}
	return Target{}, fmt.Errorf("%w: %q", ErrUnknownTarget, id)
}
