package etch

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// ============================================================
// Fixtures
// ============================================================

type scalar struct {
	i int
}

func (s *scalar) Describe(x *Exposer) {
	x.Int("i", &s.i)
}

type color uint8

const (
	red color = iota
	green
	blue
)

type allTypes struct {
	b   bool
	c   int8
	uc  uint8
	s   int16
	us  uint16
	i   int32
	ui  uint32
	l   int64
	ul  uint64
	f   float32
	d   float64
	str string
	e   color
}

func (t *allTypes) ClassTag() uint32 { return 7 }

func (t *allTypes) Describe(x *Exposer) {
	x.Bool("b", &t.b)
	x.Int8("c", &t.c)
	x.Uint8("uc", &t.uc)
	x.Int16("s", &t.s)
	x.Uint16("us", &t.us)
	x.Int32("i", &t.i)
	x.Uint32("ui", &t.ui)
	x.Int64("l", &t.l)
	x.Uint64("ul", &t.ul)
	x.Float32("f", &t.f)
	x.Float64("d", &t.d)
	x.String("str", &t.str)
	Enum(x, "e", &t.e)
}

// link is a node in a cyclic graph: every link requires a target.
type link struct {
	id   int
	next *link
}

func (l *link) ClassTag() uint32 { return 9 }

func (l *link) Describe(x *Exposer) {
	x.Int("id", &l.id)
	Ref(x, "next", &l.next)
}

// pair holds two links that reference each other across the object boundary.
type pair struct {
	a, b link
}

func (p *pair) Describe(x *Exposer) {
	x.Object("a", &p.a)
	x.Object("b", &p.b)
}

type selfish struct {
	self *selfish
}

func (s *selfish) Describe(x *Exposer) {
	Ref(x, "self", &s.self)
}

// kid points back up at the root object that owns it.
type parent struct {
	child kid
}

func (p *parent) Describe(x *Exposer) {
	x.Object("child", &p.child)
}

type kid struct {
	up *parent
}

func (k *kid) Describe(x *Exposer) {
	Ref(x, "up", &k.up)
}

type awkward struct {
	v string
	n int
}

func (a *awkward) Describe(x *Exposer) {
	x.String(`he said "hi" {ok}`, &a.v)
	x.Int("OBJECT fake = 1", &a.n)
}

// ============================================================
// Serialization
// ============================================================

func TestSerialize_Scalar(t *testing.T) {
	s := &scalar{i: 42}
	text, err := Serialize(s)
	require.NoError(t, err)
	assert.Equal(t, "OBJECT<0> root = 1 {\n\tINT i = 42\n}", text)
}

func TestSerialize_AllTypes_Golden(t *testing.T) {
	v := &allTypes{
		b:   true,
		c:   -12,
		uc:  200,
		s:   -300,
		us:  60000,
		i:   -70000,
		ui:  70000,
		l:   -5000000000,
		ul:  18000000000000000000,
		f:   2.5,
		d:   -0.125,
		str: "he said \"hi\nthere\"",
		e:   blue,
	}
	text, err := Serialize(v)
	require.NoError(t, err)

	want := "OBJECT<7> root = 1 {\n" +
		"\tBOOL b = true\n" +
		"\tCHAR c = -12\n" +
		"\tUCHAR uc = 200\n" +
		"\tSHORT s = -300\n" +
		"\tUSHORT us = 60000\n" +
		"\tINT i = -70000\n" +
		"\tUINT ui = 70000\n" +
		"\tLONG l = -5000000000\n" +
		"\tULONG ul = 18000000000000000000\n" +
		"\tFLOAT f = 2.5\n" +
		"\tDOUBLE d = -0.125\n" +
		"\tSTRING str = \"he said &quot;hi&newline;there&quot;\"\n" +
		"\tENUM e = 2\n" +
		"}"
	require.NoError(t, Check(text))
	assert.Equal(t, want, text)
}

func TestSerialize_NilReference(t *testing.T) {
	l := &link{id: 1} // next never assigned
	_, err := Serialize(l)
	require.Error(t, err)
	assert.Equal(t, PointerError, CodeOf(err))
}

func TestSerialize_UnexposedReferenceTarget(t *testing.T) {
	stray := &scalar{i: 1}
	s := &selfref{target: stray}
	_, err := Serialize(s)
	require.Error(t, err)
	assert.Equal(t, PointerError, CodeOf(err))
}

// selfref references a scalar that is never exposed as an object anywhere in
// the graph.
type selfref struct {
	target *scalar
}

func (s *selfref) Describe(x *Exposer) {
	Ref(x, "target", &s.target)
}

func TestSerialize_NewlineInFieldName(t *testing.T) {
	b := &badName{}
	_, err := Serialize(b)
	require.Error(t, err)
	assert.Equal(t, StructureError, CodeOf(err))
}

type badName struct {
	i int
}

func (b *badName) Describe(x *Exposer) {
	x.Int("first\nsecond", &b.i)
}

// ============================================================
// Round trips
// ============================================================

func TestRoundTrip_AllTypes(t *testing.T) {
	in := &allTypes{
		b: true, c: -1, uc: 2, s: -3, us: 4, i: -5, ui: 6, l: -7, ul: 8,
		f: 0.5, d: -42.5, str: "line\none \"two\"", e: green,
	}
	text, err := Serialize(in)
	require.NoError(t, err)

	out := &allTypes{}
	require.NoError(t, Deserialize(out, text))
	assert.Empty(t, cmp.Diff(in, out, cmp.AllowUnexported(allTypes{})))
}

func TestRoundTrip_SelfReference(t *testing.T) {
	in := &selfish{}
	in.self = in

	text, err := Serialize(in)
	require.NoError(t, err)
	assert.Equal(t, "OBJECT<0> root = 1 {\n\tPTR<0> self = 1\n}", text)

	out := &selfish{}
	require.NoError(t, Deserialize(out, text))
	assert.Same(t, out, out.self)
}

func TestRoundTrip_CyclicPair(t *testing.T) {
	in := &pair{a: link{id: 1}, b: link{id: 2}}
	in.a.next = &in.b // forward reference: b is serialized after a
	in.b.next = &in.a

	text, err := Serialize(in)
	require.NoError(t, err)

	want := "OBJECT<0> root = 1 {\n" +
		"\tOBJECT<9> a = 2 {\n" +
		"\t\tINT id = 1\n" +
		"\t\tPTR<9> next = 3\n" +
		"\t}\n" +
		"\tOBJECT<9> b = 3 {\n" +
		"\t\tINT id = 2\n" +
		"\t\tPTR<9> next = 2\n" +
		"\t}\n" +
		"}"
	assert.Equal(t, want, text)

	out := &pair{}
	require.NoError(t, Deserialize(out, text))
	assert.Equal(t, 1, out.a.id)
	assert.Equal(t, 2, out.b.id)
	assert.Same(t, &out.b, out.a.next)
	assert.Same(t, &out.a, out.b.next)
}

func TestRoundTrip_ReferenceToRootAncestor(t *testing.T) {
	in := &parent{}
	in.child.up = in

	text, err := Serialize(in)
	require.NoError(t, err)

	out := &parent{}
	require.NoError(t, Deserialize(out, text))
	assert.Same(t, out, out.child.up)
}

func TestRoundTrip_AwkwardNames(t *testing.T) {
	in := &awkward{v: "payload = \"tricky\"", n: 7}
	text, err := Serialize(in)
	require.NoError(t, err)
	require.NoError(t, Check(text))

	out := &awkward{}
	require.NoError(t, Deserialize(out, text))
	assert.Empty(t, cmp.Diff(in, out, cmp.AllowUnexported(awkward{})))
}

func TestReserialize_Idempotent(t *testing.T) {
	// Same document as TestRoundTrip_CyclicPair but renumbered: identities in
	// the input only matter relative to each other.
	renumbered := "OBJECT<0> me = 40 {\n" +
		"\tOBJECT<9> b = 17 {\n" +
		"\t\tINT id = 2\n" +
		"\t\tPTR<9> next = 23\n" +
		"\t}\n" +
		"\tOBJECT<9> a = 23 {\n" +
		"\t\tINT id = 1\n" +
		"\t\tPTR<9> next = 17\n" +
		"\t}\n" +
		"}"

	out := &pair{}
	require.NoError(t, Deserialize(out, renumbered))

	text, err := Serialize(out)
	require.NoError(t, err)
	want := "OBJECT<0> root = 1 {\n" +
		"\tOBJECT<9> a = 2 {\n" +
		"\t\tINT id = 1\n" +
		"\t\tPTR<9> next = 3\n" +
		"\t}\n" +
		"\tOBJECT<9> b = 3 {\n" +
		"\t\tINT id = 2\n" +
		"\t\tPTR<9> next = 2\n" +
		"\t}\n" +
		"}"
	assert.Equal(t, want, text)
}

// ============================================================
// Deserialization failures
// ============================================================

func TestDeserialize_MissingField(t *testing.T) {
	s := &scalar{}
	err := Deserialize(s, "OBJECT<0> root = 1 {\n}")
	require.Error(t, err)
	assert.Equal(t, IntegrityError, CodeOf(err))
}

func TestDeserialize_RootClassMismatch(t *testing.T) {
	s := &scalar{}
	err := Deserialize(s, "OBJECT<3> root = 1 {\n\tINT i = 42\n}")
	require.Error(t, err)
	assert.Equal(t, TypecheckError, CodeOf(err))
}

func TestDeserialize_FieldTagMismatch(t *testing.T) {
	s := &scalar{}
	err := Deserialize(s, "OBJECT<0> root = 1 {\n\tSTRING i = \"42\"\n}")
	require.Error(t, err)
	assert.Equal(t, TypecheckError, CodeOf(err))
}

func TestDeserialize_NonCanonicalValue(t *testing.T) {
	s := &scalar{}
	err := Deserialize(s, "OBJECT<0> root = 1 {\n\tINT i = 007\n}")
	require.Error(t, err)
	assert.Equal(t, TypecheckError, CodeOf(err))
}

func TestDeserialize_ValueOutOfRange(t *testing.T) {
	v := &allTypes{}
	doc := "OBJECT<7> root = 1 {\n\tBOOL b = true\n\tCHAR c = 200\n}"
	err := Deserialize(v, doc)
	require.Error(t, err)
	assert.Equal(t, TypecheckError, CodeOf(err))
}

func TestDeserialize_UnresolvedReference(t *testing.T) {
	s := &selfish{}
	err := Deserialize(s, "OBJECT<0> root = 1 {\n\tPTR<0> self = 99\n}")
	require.Error(t, err)
	assert.Equal(t, PointerError, CodeOf(err))
}

func TestDeserialize_ReferenceClassMismatch(t *testing.T) {
	// The reference line's own class disagrees with the field's type.
	p := &pair{}
	doc := "OBJECT<0> root = 1 {\n" +
		"\tOBJECT<9> a = 2 {\n" +
		"\t\tINT id = 1\n" +
		"\t\tPTR<5> next = 3\n" +
		"\t}\n" +
		"\tOBJECT<9> b = 3 {\n" +
		"\t\tINT id = 2\n" +
		"\t\tPTR<9> next = 2\n" +
		"\t}\n" +
		"}"
	err := Deserialize(p, doc)
	require.Error(t, err)
	assert.Equal(t, TypecheckError, CodeOf(err))
}

func TestDeserialize_ResolvedTargetClassMismatch(t *testing.T) {
	// The reference line carries the right class but the identity it names
	// belongs to an object of another class, which only surfaces at
	// resolution time.
	p := &pair{}
	doc := "OBJECT<0> root = 1 {\n" +
		"\tOBJECT<9> a = 2 {\n" +
		"\t\tINT id = 1\n" +
		"\t\tPTR<9> next = 1\n" +
		"\t}\n" +
		"\tOBJECT<9> b = 3 {\n" +
		"\t\tINT id = 2\n" +
		"\t\tPTR<9> next = 2\n" +
		"\t}\n" +
		"}"
	err := Deserialize(p, doc)
	require.Error(t, err)
	assert.Equal(t, TypecheckError, CodeOf(err))
}

func TestDeserialize_ValidatorPrecedesMutation(t *testing.T) {
	tests := []struct {
		name string
		data string
		code Code
	}{
		{"empty", "", StructureError},
		{"json", `{"i": 1}`, StructureError},
		{"unbalanced", "OBJECT<0> root = 1 {\n\tINT i = 7", StructureError},
		{"trailing", "OBJECT<0> root = 1 {\n\tINT i = 7\n}\nextra", StructureError},
		{"wrong root class", "OBJECT<4> root = 1 {\n\tINT i = 7\n}", TypecheckError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &scalar{i: 99}
			err := Deserialize(s, tt.data)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
			assert.Equal(t, 99, s.i, "target must not be touched")
		})
	}
}

// ============================================================
// Persistence
// ============================================================

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "state.etch")

	in := &scalar{i: 42}
	require.NoError(t, Save(in, path))

	out := &scalar{}
	require.NoError(t, Load(out, path))
	assert.Equal(t, 42, out.i)
}

func TestSave_SerializeFailureWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.etch")
	err := Save(&link{id: 1}, path) // nil reference
	require.Error(t, err)
	assert.Equal(t, PointerError, CodeOf(err))
	assert.NoFileExists(t, path)
}

func TestLoad_MissingFile(t *testing.T) {
	err := Load(&scalar{}, filepath.Join(t.TempDir(), "absent.etch"))
	require.Error(t, err)
	assert.Equal(t, FileError, CodeOf(err))
}

// ============================================================
// Options
// ============================================================

func TestWithLogger(t *testing.T) {
	opts := Options{Logger: zaptest.NewLogger(t)}

	in := &scalar{i: 7}
	text, err := SerializeWithOptions(in, opts)
	require.NoError(t, err)

	out := &scalar{}
	require.NoError(t, DeserializeWithOptions(out, text, opts))
	assert.Equal(t, 7, out.i)
}
