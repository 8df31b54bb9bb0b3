package etch

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// arena hands out stable small handles for live objects during a write walk.
// Identity is interface identity (pointer equality); handles are assigned in
// first-touch order, the root always first.
type arena struct {
	handles map[Exposable]int
}

func newArena() *arena {
	return &arena{handles: make(map[Exposable]int)}
}

// register returns the handle for v, assigning the next one on first touch.
func (a *arena) register(v Exposable) int {
	if h, ok := a.handles[v]; ok {
		return h
	}
	h := len(a.handles)
	a.handles[v] = h
	return h
}

// fixup is one deferred reference assignment recorded during a read walk.
// Resolution runs only after the whole exposure walk completes, because a
// forward reference may target an object not yet visited.
type fixup struct {
	name     string
	target   uint64 // wire identity from text
	classTag uint32
	assign   func(Exposable) error
}

// virtualize assigns wire identities to every object node, depth-first with
// parents before children and the counter starting at 1 (the root is 1), then
// rewrites every reference node's target from an arena handle to the wire
// identity of the object it points at. A reference whose target was never
// exposed as an object fails with ErrPointer.
func virtualize(root *Node) error {
	wires := make(map[int]uint64)
	next := uint64(1)

	var number func(n *Node)
	number = func(n *Node) {
		if n.kind != KindObject {
			return
		}
		n.wire = next
		next++
		if _, ok := wires[n.id]; !ok {
			wires[n.id] = n.wire
		}
		for _, c := range n.children {
			number(c)
		}
	}
	number(root)

	var rewrite func(n *Node) error
	rewrite = func(n *Node) error {
		switch n.kind {
		case KindReference:
			wire, ok := wires[n.id]
			if !ok {
				return errors.Wrapf(ErrPointer, "reference %q targets an object outside the graph", n.name)
			}
			n.wire = wire
		case KindObject:
			for _, c := range n.children {
				if err := rewrite(c); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return rewrite(root)
}

// resolve assigns every deferred reference recorded during a read walk. The
// wire identity must be bound to a live object and that object's class tag
// must match the field's expectation.
func (w *walkState) resolve() error {
	w.log.Debug("etch: resolving references",
		zap.Int("references", len(w.fixups)),
		zap.Int("objects", len(w.binds)))
	for _, f := range w.fixups {
		obj, ok := w.binds[f.target]
		if !ok {
			return errors.Wrapf(ErrPointer, "reference %q targets unknown identity %d", f.name, f.target)
		}
		if classTagOf(obj) != f.classTag {
			return errors.Wrapf(ErrTypecheck, "reference %q resolves to class %d, want %d",
				f.name, classTagOf(obj), f.classTag)
		}
		if err := f.assign(obj); err != nil {
			return err
		}
	}
	return nil
}
