package typespace

import (
	"context"
	"fmt"

	"github.com/uber/devrepl/src/devrepl/internal/fs"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyManifest     = "typespace.manifest"
	_configKeyRedefinition = "hotpatch.redefinitionEnabled"
)

// Module provides the process type space and its redefinition facility.
var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(s *Space) Facility { return s }),
)

// Params are the inbound parameters of New.
type Params struct {
	fx.In

	Config config.Provider
	FS     fs.DevreplFS
	Logger *zap.SugaredLogger
}

// New creates the process type space and loads the configured manifest, if any.
func New(p Params) (*Space, error) {
	redefinition := true
	if err := p.Config.Get(_configKeyRedefinition).Populate(&redefinition); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyRedefinition, err)
	}

	var manifestPath string
	if err := p.Config.Get(_configKeyManifest).Populate(&manifestPath); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyManifest, err)
	}

	s := NewSpace(redefinition)
	if manifestPath == "" {
		p.Logger.Infow("no type manifest configured")
		return s, nil
	}

	m, err := ReadManifest(p.FS, manifestPath)
	if err != nil {
		return nil, err
	}
	loaded, err := s.LoadManifest(context.Background(), p.FS, m)
	if err != nil {
		p.Logger.Warnw("some type scripts failed to load", zap.Error(err))
	}
	p.Logger.Infow("type space ready",
		"loaded", loaded,
		"staged", s.Pending(),
		"redefinition", redefinition,
	)
	return s, nil
}
