// Package snapshot stores named values captured from evaluation sessions, either as live
// references or as JSON renderings persisted to disk.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	tally "github.com/uber-go/tally/v4"
	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/clock"
	"github.com/uber/devrepl/src/devrepl/internal/errors"
	"github.com/uber/devrepl/src/devrepl/internal/fs"
	"github.com/uber/devrepl/src/devrepl/internal/hostctx"
	"github.com/uber/devrepl/src/devrepl/mapper"
	"github.com/uber/devrepl/src/devrepl/model"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyDir = "snapshots.dir"

	_payloadExt = ".json"
	_typeExt    = ".type"

	_gaugeEntries = "snapshot_entries"
)

// Repository is a name-keyed store of snapshot entries. Writes are last-writer-wins per name and
// a name holds exactly one mode at a time.
type Repository interface {
	// Pin stores a live reference to value.
	Pin(ctx context.Context, name string, value any) (*entity.SnapshotEntry, error)
	// SaveJSON stores the JSON rendering of value and persists it.
	SaveJSON(ctx context.Context, name string, value any) (*entity.SnapshotEntry, error)
	// Get returns the entry stored under name.
	Get(ctx context.Context, name string) (*entity.SnapshotEntry, error)
	// List returns entries whose names match the doublestar pattern, sorted by name. An empty
	// pattern matches everything.
	List(ctx context.Context, pattern string) ([]*entity.SnapshotEntry, error)
	// Delete removes the entry and its files. Deleting a missing name is not an error.
	Delete(ctx context.Context, name string) error
	// Dir is the directory JSON entries are persisted to.
	Dir() string
}

// Params are the inbound parameters of New.
type Params struct {
	fx.In

	Config config.Provider
	Clock  clock.Clock
	FS     fs.DevreplFS
	Logger *zap.SugaredLogger
	Stats  tally.Scope
}

type repository struct {
	entries sync.Map // name -> *model.SnapshotEntry
	dir     string
	clock   clock.Clock
	fs      fs.DevreplFS
	logger  *zap.SugaredLogger
	stats   tally.Scope
}

// New creates the store and loads the JSON entries found in the configured directory.
func New(p Params) (Repository, error) {
	r := &repository{
		clock:  p.Clock,
		fs:     p.FS,
		logger: p.Logger,
		stats:  p.Stats,
	}

	if err := p.Config.Get(_configKeyDir).Populate(&r.dir); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyDir, err)
	}
	if r.dir == "" {
		cache, err := p.FS.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolving snapshot directory: %w", err)
		}
		r.dir = filepath.Join(cache, "devrepl", "snapshots")
	}
	if err := p.FS.MkdirAll(r.dir); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}

	if err := r.loadPersisted(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *repository) Dir() string {
	return r.dir
}

func (r *repository) Pin(ctx context.Context, name string, value any) (*entity.SnapshotEntry, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	var size int64
	if b, err := json.Marshal(value); err == nil {
		size = int64(len(b))
	}
	e := &model.SnapshotEntry{
		Name:       name,
		TypeName:   hostctx.TypeName(value),
		Mode:       string(entity.SnapshotLive),
		Timestamp:  r.clock.Now(),
		ApproxSize: size,
		Value:      value,
	}

	if prev, ok := r.entries.Swap(name, e); ok && prev.(*model.SnapshotEntry).Mode == string(entity.SnapshotJSON) {
		r.removeFiles(name)
	}
	r.updateGauge()
	return mapper.ModelToSnapshot(e), nil
}

func (r *repository) SaveJSON(ctx context.Context, name string, value any) (*entity.SnapshotEntry, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot %q: %w", name, err)
	}
	payload := pretty.Pretty(raw)
	typeName := hostctx.TypeName(value)

	if err := r.fs.WriteFile(r.payloadPath(name), payload); err != nil {
		return nil, fmt.Errorf("writing snapshot %q: %w", name, err)
	}
	if err := r.fs.WriteFile(r.typePath(name), []byte(typeName)); err != nil {
		return nil, fmt.Errorf("writing snapshot %q: %w", name, err)
	}

	e := &model.SnapshotEntry{
		Name:       name,
		TypeName:   typeName,
		Mode:       string(entity.SnapshotJSON),
		Timestamp:  r.clock.Now(),
		ApproxSize: int64(len(payload)),
		Payload:    string(payload),
	}
	r.entries.Store(name, e)
	r.updateGauge()
	return mapper.ModelToSnapshot(e), nil
}

func (r *repository) Get(ctx context.Context, name string) (*entity.SnapshotEntry, error) {
	v, ok := r.entries.Load(name)
	if !ok {
		return nil, &errors.SnapshotNotFoundError{Name: name}
	}
	return mapper.ModelToSnapshot(v.(*model.SnapshotEntry)), nil
}

func (r *repository) List(ctx context.Context, pattern string) ([]*entity.SnapshotEntry, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid snapshot pattern %q", pattern)
	}

	out := make([]*entity.SnapshotEntry, 0)
	r.entries.Range(func(k, v any) bool {
		if pattern != "" {
			if ok, _ := doublestar.Match(pattern, k.(string)); !ok {
				return true
			}
		}
		out = append(out, mapper.ModelToSnapshot(v.(*model.SnapshotEntry)))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *repository) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if prev, ok := r.entries.LoadAndDelete(name); ok && prev.(*model.SnapshotEntry).Mode == string(entity.SnapshotJSON) {
		r.removeFiles(name)
	}
	r.updateGauge()
	return nil
}

// loadPersisted registers every <name>.json file that has a sibling <name>.type file.
func (r *repository) loadPersisted() error {
	entries, err := r.fs.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading snapshot directory: %w", err)
	}

	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), _payloadExt) {
			continue
		}
		name := strings.TrimSuffix(de.Name(), _payloadExt)
		if validateName(name) != nil {
			continue
		}
		payload, err := r.fs.ReadFile(r.payloadPath(name))
		if err != nil || !gjson.ValidBytes(payload) {
			r.logger.Warnw("skipping unreadable snapshot", "name", name, zap.Error(err))
			continue
		}
		typeName, err := r.fs.ReadFile(r.typePath(name))
		if err != nil {
			r.logger.Warnw("skipping snapshot without type file", "name", name, zap.Error(err))
			continue
		}

		ts := r.clock.Now()
		if info, err := de.Info(); err == nil {
			ts = info.ModTime()
		}
		r.entries.Store(name, &model.SnapshotEntry{
			Name:       name,
			TypeName:   strings.TrimSpace(string(typeName)),
			Mode:       string(entity.SnapshotJSON),
			Timestamp:  ts,
			ApproxSize: int64(len(payload)),
			Payload:    string(payload),
		})
	}
	r.updateGauge()
	return nil
}

func (r *repository) removeFiles(name string) {
	for _, p := range []string{r.payloadPath(name), r.typePath(name)} {
		if err := r.fs.Remove(p); err != nil {
			r.logger.Debugw("removing snapshot file", "path", p, zap.Error(err))
		}
	}
}

func (r *repository) updateGauge() {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	r.stats.Gauge(_gaugeEntries).Update(float64(n))
}

func (r *repository) payloadPath(name string) string {
	return filepath.Join(r.dir, name+_payloadExt)
}

func (r *repository) typePath(name string) string {
	return filepath.Join(r.dir, name+_typeExt)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.NoNameOnWireError
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") || strings.ContainsRune(name, 0) {
		return fmt.Errorf("invalid snapshot name %q", name)
	}
	return nil
}
