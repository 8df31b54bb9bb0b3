package etch

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

// Class tags reserved for the engine's containers.
const (
	ClassArray  uint32 = 1
	ClassVector uint32 = 2
	ClassList   uint32 = 3
)

// Field declares one element of a container the same way an Exposer method
// declares a named field. Method expressions fit directly, e.g.
// (*Exposer).Int for INT elements.
type Field[T any] func(x *Exposer, name string, v *T)

// ObjectField returns a Field that exposes elements as nested objects.
func ObjectField[T any, PT refTarget[T]]() Field[T] {
	return func(x *Exposer, name string, v *T) { x.Object(name, PT(v)) }
}

// RefField returns a Field that exposes pointer elements as references.
func RefField[T any, PT refTarget[T]]() Field[PT] {
	return func(x *Exposer, name string, v *PT) { Ref[T, PT](x, name, v) }
}

// EnumField returns a Field that exposes elements as ENUM values.
func EnumField[E constraints.Integer]() Field[E] {
	return func(x *Exposer, name string, v *E) { Enum(x, name, v) }
}

// ============================================================
// Array
// ============================================================

// Array is a fixed-size exposable container. Its wire form is a `length`
// primitive followed by one element per decimal index; a document with a
// different length is a type error.
type Array[T any] struct {
	elems []T
	field Field[T]
}

// NewArray creates an array of size zero-valued elements.
func NewArray[T any](size int, field Field[T]) *Array[T] {
	return &Array[T]{elems: make([]T, size), field: field}
}

// ClassTag returns the reserved array class tag.
func (a *Array[T]) ClassTag() uint32 { return ClassArray }

// Len returns the fixed length.
func (a *Array[T]) Len() int { return len(a.elems) }

// At returns the element at index i.
func (a *Array[T]) At(i int) T { return a.elems[i] }

// Set assigns the element at index i.
func (a *Array[T]) Set(i int, v T) { a.elems[i] = v }

// Values returns a copy of the elements.
func (a *Array[T]) Values() []T {
	out := make([]T, len(a.elems))
	copy(out, a.elems)
	return out
}

// Describe declares `length` followed by the indexed elements.
func (a *Array[T]) Describe(x *Exposer) {
	length := uint64(len(a.elems))
	x.Uint64("length", &length)
	if !x.ok() {
		return
	}
	if length != uint64(len(a.elems)) {
		x.fail(errors.Wrapf(ErrTypecheck, "array length %d, want %d", length, len(a.elems)))
		return
	}
	for i := range a.elems {
		a.field(x, strconv.Itoa(i), &a.elems[i])
	}
}

// ============================================================
// Vector
// ============================================================

// Vector is a growable exposable container. On read the decoded `length`
// resizes the storage before any element is requested, so index lookups
// always target valid storage.
type Vector[T any] struct {
	elems []T
	field Field[T]
}

// NewVector creates a vector holding the given elements.
func NewVector[T any](field Field[T], elems ...T) *Vector[T] {
	return &Vector[T]{elems: elems, field: field}
}

// ClassTag returns the reserved vector class tag.
func (v *Vector[T]) ClassTag() uint32 { return ClassVector }

// Len returns the element count.
func (v *Vector[T]) Len() int { return len(v.elems) }

// At returns the element at index i.
func (v *Vector[T]) At(i int) T { return v.elems[i] }

// Set assigns the element at index i.
func (v *Vector[T]) Set(i int, val T) { v.elems[i] = val }

// Push appends an element.
func (v *Vector[T]) Push(val T) { v.elems = append(v.elems, val) }

// Values returns a copy of the elements.
func (v *Vector[T]) Values() []T {
	out := make([]T, len(v.elems))
	copy(out, v.elems)
	return out
}

func (v *Vector[T]) resize(n int) {
	if n <= len(v.elems) {
		v.elems = v.elems[:n]
		return
	}
	v.elems = append(v.elems, make([]T, n-len(v.elems))...)
}

// Describe declares `length` followed by the indexed elements.
func (v *Vector[T]) Describe(x *Exposer) {
	length := uint64(len(v.elems))
	x.Uint64("length", &length)
	if !x.ok() {
		return
	}
	if x.reading() {
		// The document holds length plus at most childCount-1 elements;
		// refuse to allocate beyond what could possibly be there.
		if length > uint64(x.childCount()-1) {
			x.fail(errors.Wrapf(ErrIntegrity, "vector length %d exceeds %d serialized elements",
				length, x.childCount()-1))
			return
		}
		v.resize(int(length))
	}
	for i := range v.elems {
		v.field(x, strconv.Itoa(i), &v.elems[i])
	}
}

// ============================================================
// List
// ============================================================

type listNode[T any] struct {
	val  T
	next *listNode[T]
}

// List is a growable exposable container backed by a singly linked list.
// Its wire form and read contract match Vector's.
type List[T any] struct {
	head, tail *listNode[T]
	size       int
	field      Field[T]
}

// NewList creates a list holding the given elements.
func NewList[T any](field Field[T], elems ...T) *List[T] {
	l := &List[T]{field: field}
	for _, e := range elems {
		l.PushBack(e)
	}
	return l
}

// ClassTag returns the reserved list class tag.
func (l *List[T]) ClassTag() uint32 { return ClassList }

// Len returns the element count.
func (l *List[T]) Len() int { return l.size }

// PushBack appends an element.
func (l *List[T]) PushBack(val T) {
	n := &listNode[T]{val: val}
	if l.tail == nil {
		l.head, l.tail = n, n
	} else {
		l.tail.next = n
		l.tail = n
	}
	l.size++
}

// Values returns the elements in order.
func (l *List[T]) Values() []T {
	out := make([]T, 0, l.size)
	for n := l.head; n != nil; n = n.next {
		out = append(out, n.val)
	}
	return out
}

func (l *List[T]) resize(n int) {
	if n == 0 {
		l.head, l.tail, l.size = nil, nil, 0
		return
	}
	for l.size > n {
		// Drop the tail: walk to the node before it.
		cur := l.head
		for cur.next != l.tail {
			cur = cur.next
		}
		cur.next = nil
		l.tail = cur
		l.size--
	}
	for l.size < n {
		var zero T
		l.PushBack(zero)
	}
}

// Describe declares `length` followed by the indexed elements.
func (l *List[T]) Describe(x *Exposer) {
	length := uint64(l.size)
	x.Uint64("length", &length)
	if !x.ok() {
		return
	}
	if x.reading() {
		if length > uint64(x.childCount()-1) {
			x.fail(errors.Wrapf(ErrIntegrity, "list length %d exceeds %d serialized elements",
				length, x.childCount()-1))
			return
		}
		l.resize(int(length))
	}
	i := 0
	for n := l.head; n != nil; n = n.next {
		l.field(x, strconv.Itoa(i), &n.val)
		i++
	}
}
