package etch

import (
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/constraints"
)

// Exposable is implemented by any type that participates in ETCH
// serialization. Describe declares the exposed fields by calling back into
// the Exposer once per field; the same declaration is walked for writing and
// for reading. Implement Describe on a pointer receiver: object identity is
// pointer identity.
type Exposable interface {
	Describe(x *Exposer)
}

// Tagged is optionally implemented to publish a class tag, the small integer
// used to type-match nested objects and references. Types without it carry
// tag 0. Tags 1-3 are reserved for the engine's containers.
type Tagged interface {
	ClassTag() uint32
}

func classTagOf(v Exposable) uint32 {
	if t, ok := v.(Tagged); ok {
		return t.ClassTag()
	}
	return 0
}

type mode uint8

const (
	modeWrite mode = iota
	modeRead
)

// walkState is the per-call engine state shared by every Exposer of one
// serialize or deserialize walk. It is created fresh for each call, so
// independent objects may be processed concurrently.
type walkState struct {
	mode mode
	err  error // first failure, latched

	// Write side
	arena *arena

	// Read side
	binds  map[uint64]Exposable // wire identity -> live object
	fixups []fixup              // deferred reference assignments

	log *zap.Logger
}

func (w *walkState) ok() bool { return w.err == nil }

func (w *walkState) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Exposer drives one object's Describe call against one object node of the
// serial tree.
type Exposer struct {
	walk *walkState
	node *Node
}

func (x *Exposer) ok() bool        { return x.walk.ok() }
func (x *Exposer) fail(err error)  { x.walk.fail(err) }
func (x *Exposer) reading() bool   { return x.walk.mode == modeRead }
func (x *Exposer) childCount() int { return len(x.node.children) }

// ============================================================
// Primitive fields
// ============================================================

// primitive is the shared two-direction core of every primitive field
// declaration. format renders the live value; assign parses a wire value and
// stores it.
func (x *Exposer) primitive(tag, name string, format func() (string, error), assign func(string) error) {
	if !x.ok() {
		return
	}
	if strings.Contains(name, "\n") {
		x.fail(errors.Wrapf(ErrStructure, "field name %q contains a newline", name))
		return
	}

	if x.walk.mode == modeWrite {
		value, err := format()
		if err != nil {
			x.fail(errors.Wrapf(err, "field %q", name))
			return
		}
		x.node.AddChild(NewPrimitive(tag, name, value))
		return
	}

	child := x.node.Child(name)
	if child == nil {
		x.fail(errors.Wrapf(ErrIntegrity, "field %q has no node", name))
		return
	}
	if child.kind != KindPrimitive || child.tag != tag {
		x.fail(errors.Wrapf(ErrTypecheck, "field %q is not a %s", name, tag))
		return
	}
	if err := assign(child.value); err != nil {
		x.fail(errors.Wrapf(err, "field %q", name))
	}
}

func signedField[T constraints.Signed](x *Exposer, tag string, bits int, name string, v *T) {
	x.primitive(tag, name,
		func() (string, error) { return formatSigned(int64(*v)), nil },
		func(s string) error {
			n, err := parseSigned(s, bits)
			if err != nil {
				return err
			}
			*v = T(n)
			return nil
		})
}

func unsignedField[T constraints.Unsigned](x *Exposer, tag string, bits int, name string, v *T) {
	x.primitive(tag, name,
		func() (string, error) { return formatUnsigned(uint64(*v)), nil },
		func(s string) error {
			n, err := parseUnsigned(s, bits)
			if err != nil {
				return err
			}
			*v = T(n)
			return nil
		})
}

func floatField[T constraints.Float](x *Exposer, tag string, bits int, name string, v *T) {
	x.primitive(tag, name,
		func() (string, error) { return formatFloat(float64(*v), bits), nil },
		func(s string) error {
			f, err := parseFloat(s, bits)
			if err != nil {
				return err
			}
			*v = T(f)
			return nil
		})
}

// Bool declares a BOOL field.
func (x *Exposer) Bool(name string, v *bool) {
	x.primitive(TagBool, name,
		func() (string, error) { return formatBool(*v), nil },
		func(s string) error {
			b, err := parseBool(s)
			if err != nil {
				return err
			}
			*v = b
			return nil
		})
}

// Int8 declares a CHAR field.
func (x *Exposer) Int8(name string, v *int8) { signedField(x, TagChar, 8, name, v) }

// Uint8 declares a UCHAR field.
func (x *Exposer) Uint8(name string, v *uint8) { unsignedField(x, TagUchar, 8, name, v) }

// Int16 declares a SHORT field.
func (x *Exposer) Int16(name string, v *int16) { signedField(x, TagShort, 16, name, v) }

// Uint16 declares a USHORT field.
func (x *Exposer) Uint16(name string, v *uint16) { unsignedField(x, TagUshort, 16, name, v) }

// Int32 declares an INT field.
func (x *Exposer) Int32(name string, v *int32) { signedField(x, TagInt, 32, name, v) }

// Uint32 declares a UINT field.
func (x *Exposer) Uint32(name string, v *uint32) { unsignedField(x, TagUint, 32, name, v) }

// Int64 declares a LONG field.
func (x *Exposer) Int64(name string, v *int64) { signedField(x, TagLong, 64, name, v) }

// Uint64 declares a ULONG field.
func (x *Exposer) Uint64(name string, v *uint64) { unsignedField(x, TagUlong, 64, name, v) }

// Int declares an INT field for a Go int.
func (x *Exposer) Int(name string, v *int) { signedField(x, TagInt, 64, name, v) }

// Uint declares a UINT field for a Go uint.
func (x *Exposer) Uint(name string, v *uint) { unsignedField(x, TagUint, 64, name, v) }

// Float32 declares a FLOAT field.
func (x *Exposer) Float32(name string, v *float32) { floatField(x, TagFloat, 32, name, v) }

// Float64 declares a DOUBLE field.
func (x *Exposer) Float64(name string, v *float64) { floatField(x, TagDouble, 64, name, v) }

// String declares a STRING field. Quotes and newlines in the value are
// escaped on the wire.
func (x *Exposer) String(name string, v *string) {
	x.primitive(TagString, name,
		func() (string, error) { return quoteString(*v), nil },
		func(s string) error {
			u, err := unquoteString(s)
			if err != nil {
				return err
			}
			*v = u
			return nil
		})
}

// Enum declares an ENUM field for any named integer type. Enum values are
// unsigned on the wire; a negative value is a write-side type error.
func Enum[E constraints.Integer](x *Exposer, name string, v *E) {
	x.primitive(TagEnum, name,
		func() (string, error) {
			if *v < 0 {
				return "", errors.Wrapf(ErrTypecheck, "enum value %d is negative", *v)
			}
			return formatUnsigned(uint64(*v)), nil
		},
		func(s string) error {
			n, err := parseUnsigned(s, 64)
			if err != nil {
				return err
			}
			*v = E(n)
			return nil
		})
}

// ============================================================
// Nested objects
// ============================================================

// Object declares a nested exposable object. The child shares this walk's
// identity bookkeeping, so references may cross object boundaries.
func (x *Exposer) Object(name string, v Exposable) {
	if !x.ok() {
		return
	}
	if v == nil {
		x.fail(errors.Wrapf(ErrPointer, "nested object %q is nil", name))
		return
	}
	if strings.Contains(name, "\n") {
		x.fail(errors.Wrapf(ErrStructure, "field name %q contains a newline", name))
		return
	}

	if x.walk.mode == modeWrite {
		h := x.walk.arena.register(v)
		child := NewObject(name, classTagOf(v), h)
		v.Describe(&Exposer{walk: x.walk, node: child})
		x.node.AddChild(child)
		return
	}

	child := x.node.Child(name)
	if child == nil {
		x.fail(errors.Wrapf(ErrIntegrity, "field %q has no node", name))
		return
	}
	if !child.IsObject(classTagOf(v)) {
		x.fail(errors.Wrapf(ErrTypecheck, "field %q is not an object with class %d", name, classTagOf(v)))
		return
	}
	x.walk.binds[child.wire] = v
	v.Describe(&Exposer{walk: x.walk, node: child})
}

// ============================================================
// References
// ============================================================

// refTarget constrains PT to a pointer-to-T that exposes itself.
type refTarget[T any] interface {
	*T
	Exposable
}

// Ref declares a reference field: a non-owning edge to another exposable
// object living elsewhere in the same graph (possibly the root, possibly the
// holder itself). On write the target must be non-nil and must be exposed as
// an object somewhere in the graph; on read the field is assigned after the
// whole document has been consumed, so forward references resolve.
func Ref[T any, PT refTarget[T]](x *Exposer, name string, field *PT) {
	if !x.ok() {
		return
	}
	if strings.Contains(name, "\n") {
		x.fail(errors.Wrapf(ErrStructure, "field name %q contains a newline", name))
		return
	}

	if x.walk.mode == modeWrite {
		if *field == nil {
			x.fail(errors.Wrapf(ErrPointer, "reference %q is nil", name))
			return
		}
		target := Exposable(*field)
		h := x.walk.arena.register(target)
		x.node.AddChild(NewReference(name, classTagOf(target), h))
		return
	}

	expected := classTagOf(PT(new(T)))
	child := x.node.Child(name)
	if child == nil {
		x.fail(errors.Wrapf(ErrIntegrity, "field %q has no node", name))
		return
	}
	if !child.IsReference(expected) {
		x.fail(errors.Wrapf(ErrTypecheck, "field %q is not a reference with class %d", name, expected))
		return
	}
	x.walk.fixups = append(x.walk.fixups, fixup{
		name:     name,
		target:   child.wire,
		classTag: expected,
		assign: func(obj Exposable) error {
			t, ok := obj.(PT)
			if !ok {
				return errors.Wrapf(ErrTypecheck, "reference %q resolves to a foreign type", name)
			}
			*field = t
			return nil
		},
	})
}
