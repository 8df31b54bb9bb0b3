// Package etch implements ETCH, a line-oriented text format for object
// graphs with cross-object references.
//
// A type joins the format by implementing a single Describe method that
// declares its exposed fields. The same declaration drives both directions:
// serialization walks it to build a node tree, deserialization walks it to
// consume one.
//
//	type Player struct {
//		Name  string
//		Score int
//		Buddy *Player
//	}
//
//	func (p *Player) Describe(x *etch.Exposer) {
//		x.String("name", &p.Name)
//		x.Int("score", &p.Score)
//		etch.Ref(x, "buddy", &p.Buddy)
//	}
//
// # Wire Format
//
// One field per line, tab-indented per nesting level:
//
//	OBJECT<0> root = 1 {
//		STRING name = "arthur"
//		INT score = 42
//		PTR<0> buddy = 1
//	}
//
// Primitives:  TAG NAME = VALUE
// Objects:     OBJECT<CLASS> NAME = ID { ... }
// References:  PTR<CLASS> NAME = ID
//
// Object identities are virtualized: live objects get small sequential ids
// for the duration of one call, so references (including self- and cyclic
// references) survive a round trip. References resolve after the whole
// document is consumed, so forward references are fine.
//
// # Results
//
// Every operation returns nil or an error wrapping exactly one of ErrFile,
// ErrStructure, ErrTypecheck, ErrIntegrity or ErrPointer. Deserialize runs
// the structural validator first and never touches a field of the target on
// malformed input.
package etch
