package dragdrop

import (
	"slices"

	"github.com/roach88/blocktest/internal/block"
)

// Zone names a drop destination.
type Zone string

const (
	ZoneCanvas         Zone = "canvas"
	ZoneFunctionBody   Zone = "function-body"
	ZoneAnalyzeBody    Zone = "analyze-body"
	ZoneAssertionChain Zone = "assertion-chain"
	ZoneTrash          Zone = "trash"
)

// Valid reports whether z is a known zone.
func (z Zone) Valid() bool {
	switch z {
	case ZoneCanvas, ZoneFunctionBody, ZoneAnalyzeBody, ZoneAssertionChain, ZoneTrash:
		return true
	}
	return false
}

var accepted = map[Zone][]block.Kind{
	ZoneCanvas: {block.KindFunction, block.KindAnalyzeFunction},
	ZoneFunctionBody: {
		block.KindVariable, block.KindAssertThat, block.KindExceptionAssert,
		block.KindStaticAssert, block.KindComment,
	},
	ZoneAnalyzeBody:    {block.KindStructureCheck, block.KindComment},
	ZoneAssertionChain: {block.KindMatcher},
}

// Accepts reports whether zone z takes blocks of kind k.
// Trash accepts every kind but only from existing blocks; see Engine.Drop.
func Accepts(z Zone, k block.Kind) bool {
	if z == ZoneTrash {
		return k.Valid()
	}
	return slices.Contains(accepted[z], k)
}

// ParentAllowed reports whether parent can host zone z.
// Canvas and trash take no parent.
func ParentAllowed(z Zone, parent block.Payload) bool {
	switch z {
	case ZoneFunctionBody:
		return parent != nil && parent.Kind() == block.KindFunction
	case ZoneAnalyzeBody:
		return parent != nil && parent.Kind() == block.KindAnalyzeFunction
	case ZoneAssertionChain:
		if parent == nil {
			return false
		}
		return parent.Kind() == block.KindAssertThat || block.IsChainable(parent)
	case ZoneCanvas, ZoneTrash:
		return parent == nil
	}
	return false
}

// ZoneFor returns the zone whose children live under parent, or canvas for
// a nil parent. The second result is false when parent hosts no zone.
func ZoneFor(parent block.Payload) (Zone, bool) {
	if parent == nil {
		return ZoneCanvas, true
	}
	for _, z := range []Zone{ZoneFunctionBody, ZoneAnalyzeBody, ZoneAssertionChain} {
		if ParentAllowed(z, parent) {
			return z, true
		}
	}
	return "", false
}
