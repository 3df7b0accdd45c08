package typespace

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/uber/devrepl/src/devrepl/internal/fs"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Manifest lists the type scripts loaded into the process space at startup.
type Manifest struct {
	Types []ManifestEntry `yaml:"types"`

	// Dir is the directory script paths are resolved against.
	Dir string `yaml:"-"`
}

// ManifestEntry is one type script. Lazy scripts are compiled at startup but their types are only
// loaded on first use.
type ManifestEntry struct {
	Script string `yaml:"script"`
	Lazy   bool   `yaml:"lazy"`
}

// ScriptPath returns the absolute location of the entry's script.
func (m Manifest) ScriptPath(e ManifestEntry) string {
	if filepath.IsAbs(e.Script) {
		return e.Script
	}
	return filepath.Join(m.Dir, e.Script)
}

// ReadManifest parses the manifest at path.
func ReadManifest(fsys fs.DevreplFS, path string) (Manifest, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	for i, e := range m.Types {
		if e.Script == "" {
			return Manifest{}, fmt.Errorf("parsing manifest %s: entry %d has no script", path, i)
		}
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

// LoadManifest compiles every script listed in m. Eager scripts are loaded, lazy ones are staged.
// Failing scripts are reported together and do not prevent the others from loading.
func (s *Space) LoadManifest(ctx context.Context, fsys fs.DevreplFS, m Manifest) (loaded []string, errs error) {
	for _, e := range m.Types {
		path := m.ScriptPath(e)
		src, err := fsys.ReadFile(path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reading %s: %w", path, err))
			continue
		}
		artifacts, err := Compile(ctx, filepath.Base(path), string(src))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("compiling %s: %w", path, err))
			continue
		}
		if e.Lazy {
			s.Stage(artifacts)
			continue
		}
		if err := s.Load(artifacts); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("loading %s: %w", path, err))
			continue
		}
		for _, a := range artifacts {
			loaded = append(loaded, a.Name)
		}
	}
	return loaded, errs
}
