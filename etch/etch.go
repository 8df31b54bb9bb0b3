package etch

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Options configures a serialize or deserialize call.
type Options struct {
	// Logger receives debug-level traces of the walk phases. Nil means no
	// logging.
	Logger *zap.Logger
}

// DefaultOptions returns the defaults: no logging.
func DefaultOptions() Options {
	return Options{}
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

// Serialize renders v and every object reachable through its exposed fields
// as ETCH text. On any failure no text is returned.
func Serialize(v Exposable) (string, error) {
	return SerializeWithOptions(v, DefaultOptions())
}

// SerializeWithOptions serializes with custom options.
func SerializeWithOptions(v Exposable, opts Options) (string, error) {
	log := opts.logger()

	w := &walkState{mode: modeWrite, arena: newArena(), log: log}
	w.arena.register(v)

	root := NewObject("root", classTagOf(v), 0)
	v.Describe(&Exposer{walk: w, node: root})
	if w.err != nil {
		return "", w.err
	}

	if err := virtualize(root); err != nil {
		return "", err
	}
	log.Debug("etch: serialized",
		zap.Uint32("class", classTagOf(v)),
		zap.Int("objects", len(w.arena.handles)))
	return Emit(root), nil
}

// Deserialize populates v's exposed fields from ETCH text. The document is
// structurally validated before any field of v is touched, and references
// are resolved only after the whole document has been consumed.
func Deserialize(v Exposable, data string) error {
	return DeserializeWithOptions(v, data, DefaultOptions())
}

// DeserializeWithOptions deserializes with custom options.
func DeserializeWithOptions(v Exposable, data string, opts Options) error {
	log := opts.logger()

	if err := Check(data); err != nil {
		return err
	}
	root, err := Parse(data)
	if err != nil {
		return err
	}
	if !root.IsObject(classTagOf(v)) {
		return errors.Wrapf(ErrTypecheck, "root object has class %d, want %d", root.classTag, classTagOf(v))
	}

	w := &walkState{mode: modeRead, binds: make(map[uint64]Exposable), log: log}
	w.binds[root.wire] = v
	v.Describe(&Exposer{walk: w, node: root})
	if w.err != nil {
		return w.err
	}

	if err := w.resolve(); err != nil {
		return err
	}
	log.Debug("etch: deserialized", zap.Uint32("class", classTagOf(v)))
	return nil
}

// Save serializes v and writes the text to path, creating missing parent
// directories. Nothing is written if serialization fails.
func Save(v Exposable, path string) error {
	text, err := Serialize(v)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(ErrFile, "create %q: %v", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return errors.Wrapf(ErrFile, "write %q: %v", path, err)
	}
	return nil
}

// Load reads the whole file at path and deserializes it into v.
func Load(v Exposable, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(ErrFile, "read %q: %v", path, err)
	}
	return Deserialize(v, string(data))
}
