package manifest

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/kbukum/iockit/di"
	"github.com/kbukum/iockit/errors"
	"github.com/kbukum/iockit/logger"
)

// Definer is the registration surface the loader drives. *di.Container
// satisfies it.
type Definer interface {
	Define(key string, deps []string, impl di.Implementation, opts ...di.DefineOption) error
}

// DefaultExtensions are the manifest file extensions loaded by default.
var DefaultExtensions = []string{".yaml", ".yml", ".hcl"}

// Loader reads manifest files and defines their modules in a container.
type Loader struct {
	fs         afero.Fs
	factories  Factories
	flat       bool
	extensions []string
	filter     func(path string) bool
	parse      func(key string, m *Module) bool
	namespace  string
	log        *logger.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithFactories registers the factories manifests may refer to by name.
func WithFactories(f Factories) Option {
	return func(l *Loader) { l.factories = f }
}

// WithFlat disables descending into subdirectories.
func WithFlat(flat bool) Option {
	return func(l *Loader) { l.flat = flat }
}

// WithExtensions replaces the set of file extensions considered.
func WithExtensions(exts ...string) Option {
	return func(l *Loader) { l.extensions = exts }
}

// WithFilter skips files for which keep returns false.
func WithFilter(keep func(path string) bool) Option {
	return func(l *Loader) { l.filter = keep }
}

// WithParse is called with each module and its full key before it is
// defined; returning false skips the module.
func WithParse(fn func(key string, m *Module) bool) Option {
	return func(l *Loader) { l.parse = fn }
}

// WithNamespace sets the base key for every module, replacing the
// directory-derived namespace.
func WithNamespace(ns string) Option {
	return func(l *Loader) { l.namespace = ns }
}

// WithLogger sets the loader logger.
func WithLogger(log *logger.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// NewLoader creates a loader reading from fs. A nil fs reads the OS
// filesystem.
func NewLoader(fs afero.Fs, opts ...Option) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	l := &Loader{
		fs:         fs,
		extensions: DefaultExtensions,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.Get("manifest")
	}
	return l
}

// LoadDir loads every manifest under dir. Modules in a subdirectory are
// namespaced by its path relative to dir. A key claimed by two manifests
// without force fails with DUPLICATE_MODULE. It returns the number of
// modules passed to Define.
func (l *Loader) LoadDir(c Definer, dir string) (int, error) {
	info, err := l.fs.Stat(dir)
	if err != nil {
		return 0, errors.InvalidInput("dir", fmt.Sprintf("cannot read manifest directory %s: %v", dir, err)).WithCause(err)
	}
	if !info.IsDir() {
		return 0, errors.InvalidInput("dir", fmt.Sprintf("%s is not a directory", dir))
	}

	total := 0
	seen := make(map[string]string)
	err = afero.Walk(l.fs, dir, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.IsDir() {
			if l.flat && p != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !l.accepts(p) {
			return nil
		}

		ns := l.namespace
		if ns == "" {
			ns = namespaceFor(dir, p)
		}
		n, err := l.loadFile(c, p, ns, seen)
		total += n
		return err
	})
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return total, err
		}
		return total, errors.InvalidInput("dir", fmt.Sprintf("walking %s: %v", dir, err)).WithCause(err)
	}

	l.log.Info("manifests loaded", logger.Fields(
		logger.FieldFile, dir,
		logger.FieldCount, total,
	))
	return total, nil
}

// LoadFile decodes one manifest and defines its modules under namespace.
// A namespace declared in the document takes precedence. A key declared
// twice without force fails with DUPLICATE_MODULE.
func (l *Loader) LoadFile(c Definer, p, namespace string) (int, error) {
	return l.loadFile(c, p, namespace, make(map[string]string))
}

// loadFile records every defined key in seen, mapped to its file.
func (l *Loader) loadFile(c Definer, p, namespace string, seen map[string]string) (int, error) {
	src, err := afero.ReadFile(l.fs, p)
	if err != nil {
		return 0, errors.InvalidInput("file", fmt.Sprintf("reading %s: %v", p, err)).WithCause(err)
	}

	doc, err := Decode(src, p)
	if err != nil {
		return 0, err
	}
	base := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	if err := doc.normalize(base); err != nil {
		return 0, withFile(err, p)
	}
	if doc.Namespace != "" {
		namespace = doc.Namespace
	}

	defined := 0
	for i := range doc.Modules {
		m := &doc.Modules[i]
		key := joinKey(namespace, m.Key)
		if l.parse != nil && !l.parse(key, m) {
			continue
		}

		impl, err := m.implementation(l.factories)
		if err != nil {
			return defined, withFile(err, p)
		}
		var opts []di.DefineOption
		if m.Force {
			opts = append(opts, di.Force())
		} else if first, dup := seen[di.NormalizeKey(key)]; dup {
			return defined, errors.DuplicateModule(di.NormalizeKey(key)).
				WithDetail("file", p).
				WithDetail("first", first)
		}
		if err := c.Define(key, m.Dependencies, impl, opts...); err != nil {
			return defined, withFile(err, p)
		}
		seen[di.NormalizeKey(key)] = p
		defined++
	}

	l.log.Debug("manifest loaded", logger.Fields(
		logger.FieldFile, p,
		logger.FieldCount, defined,
	))
	return defined, nil
}

// Decode picks the decoder from the file extension.
func Decode(src []byte, filename string) (*Document, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".hcl":
		return DecodeHCL(src, filename)
	case ".yaml", ".yml":
		return DecodeYAML(src, filename)
	default:
		return nil, errors.InvalidInput("file", fmt.Sprintf("unsupported manifest format %q", filepath.Ext(filename))).
			WithDetail("file", filename)
	}
}

func (l *Loader) accepts(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	matched := false
	for _, e := range l.extensions {
		if ext == e {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	return l.filter == nil || l.filter(p)
}

// namespaceFor derives the namespace of file from its directory relative
// to root.
func namespaceFor(root, file string) string {
	rel, err := filepath.Rel(root, filepath.Dir(file))
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func joinKey(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return path.Join(namespace, key)
}

func withFile(err error, file string) error {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.WithDetail("file", file)
	}
	return err
}
