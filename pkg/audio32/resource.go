// ABOUTME: Resource identifiers and the resource manager collaborator
// ABOUTME: Audio and Audio36 keys are distinct and never compare equal
package audio32

import "fmt"

// Kind tags a ResourceID
type Kind uint8

const (
	KindNone Kind = iota
	KindAudio
	KindAudio36
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindAudio36:
		return "audio36"
	default:
		return "none"
	}
}

// ResourceID addresses a sound. Audio keys use Number only. Audio36 keys
// address one line of dialogue: Number is the module and the remaining
// fields complete the tuple.
type ResourceID struct {
	Kind   Kind
	Number uint16
	Noun   uint8
	Verb   uint8
	Cond   uint8
	Seq    uint8
}

// AudioID builds a plain numeric key
func AudioID(number uint16) ResourceID {
	return ResourceID{Kind: KindAudio, Number: number}
}

// Audio36ID builds a dialogue key
func Audio36ID(module uint16, noun, verb, cond, seq uint8) ResourceID {
	return ResourceID{Kind: KindAudio36, Number: module, Noun: noun, Verb: verb, Cond: cond, Seq: seq}
}

// Equal compares two keys. Keys of different kinds never match.
func (id ResourceID) Equal(other ResourceID) bool {
	if id.Kind != other.Kind {
		return false
	}
	if id.Kind == KindAudio {
		return id.Number == other.Number
	}
	return id == other
}

func (id ResourceID) IsZero() bool {
	return id.Kind == KindNone
}

func (id ResourceID) String() string {
	switch id.Kind {
	case KindAudio:
		return fmt.Sprintf("%d.aud", id.Number)
	case KindAudio36:
		return fmt.Sprintf("%d_%d_%d_%d_%d.a36", id.Number, id.Noun, id.Verb, id.Cond, id.Seq)
	default:
		return "none"
	}
}

// Owner is an opaque handle naming the caller that started a sound. It lets
// the same resource play from two call sites as two channels.
type Owner uint32

// NoOwner matches any owner in lookups
const NoOwner Owner = 0

// ResourceManager loads and pins compressed sound data.
//
// Lock returns the resident bytes for id and pins them until the matching
// Unlock. Implementations need not be goroutine-safe: the mixer only ever
// calls them from engine-side methods.
type ResourceManager interface {
	Lock(id ResourceID) ([]byte, error)
	Unlock(id ResourceID)
}
