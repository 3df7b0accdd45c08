// Package devrepl implements the session manager: it owns the evaluation engine of every client
// session and the session-scoped operations of the protocol.
package devrepl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/tidwall/gjson"
	"github.com/uber/devrepl/src/devrepl/controller/evaluator"
	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/factory"
	"github.com/uber/devrepl/src/devrepl/internal/errors"
	"github.com/uber/devrepl/src/devrepl/internal/fs"
	"github.com/uber/devrepl/src/devrepl/internal/hostctx"
	"github.com/uber/devrepl/src/devrepl/internal/logfilewriter"
	"github.com/uber/devrepl/src/devrepl/internal/serverinfofile"
	"github.com/uber/devrepl/src/devrepl/mapper"
	"github.com/uber/devrepl/src/devrepl/repository/session"
	"github.com/uber/devrepl/src/devrepl/repository/snapshot"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	_configKeyTranscript = "transcript.enabled"
	_transcriptName      = "transcript"
)

// Controller manages sessions and the operations bound to them. Session-scoped methods read the
// connection id and, when present, the session id from ctx; without a session id the oldest
// session of the connection is used.
type Controller interface {
	InitConnection(ctx context.Context, connection uuid.UUID) (*entity.Session, error)
	EndConnection(ctx context.Context, connection uuid.UUID) error

	Clone(ctx context.Context) (*entity.Session, error)
	Close(ctx context.Context) error
	Reset(ctx context.Context) ([]string, error)
	Imports(ctx context.Context) ([]string, error)
	AddImports(ctx context.Context, imports []string) (current []string, diagnostics []string, err error)
	Eval(ctx context.Context, code string) (*entity.EvalResult, error)
	ListBindings(ctx context.Context) ([]string, error)

	SnapshotSave(ctx context.Context, name, expr string, mode entity.SnapshotMode) (*entity.SnapshotEntry, error)
	SnapshotLoad(ctx context.Context, name, variable string) (string, error)
	SnapshotList(ctx context.Context, pattern string) ([]*entity.SnapshotEntry, error)
	SnapshotDelete(ctx context.Context, name string) error
	SnapshotInfo(ctx context.Context, name string) (string, error)
	SnapshotMaterialize(ctx context.Context, name, typeName, target string) (*entity.SnapshotEntry, error)
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Config         config.Provider
	Logger         *zap.SugaredLogger
	Sessions       session.Repository
	Snapshots      snapshot.Repository
	Evaluator      evaluator.Evaluator
	Registry       hostctx.Registry
	FS             fs.DevreplFS
	Lifecycle      fx.Lifecycle
	ServerInfoFile serverinfofile.ServerInfoFile
}

type controller struct {
	logger    *zap.SugaredLogger
	sessions  session.Repository
	snapshots snapshot.Repository
	evaluator evaluator.Evaluator
	registry  hostctx.Registry

	transcriptMu sync.Mutex
	transcript   io.Writer
}

// New constructs the session manager.
func New(p Params) (Controller, error) {
	var transcript bool
	if err := p.Config.Get(_configKeyTranscript).Populate(&transcript); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyTranscript, err)
	}

	c := &controller{
		logger:    p.Logger,
		sessions:  p.Sessions,
		snapshots: p.Snapshots,
		evaluator: p.Evaluator,
		registry:  p.Registry,
	}

	if transcript {
		w, err := logfilewriter.SetupOutputWriter(logfilewriter.Params{
			FS:             p.FS,
			Lifecycle:      p.Lifecycle,
			ServerInfoFile: p.ServerInfoFile,
		}, _transcriptName)
		if err != nil {
			return nil, fmt.Errorf("setting up transcript: %w", err)
		}
		c.transcript = w
	}
	return c, nil
}

func (c *controller) InitConnection(ctx context.Context, connection uuid.UUID) (*entity.Session, error) {
	s, err := c.newSession(ctx, connection)
	if err != nil {
		return nil, err
	}
	c.logger.Infow("connection opened", "connection", connection, "session", s.UUID)
	return s, nil
}

func (c *controller) EndConnection(ctx context.Context, connection uuid.UUID) error {
	sessions, err := c.sessions.GetAllFromConnection(ctx, connection)
	if err != nil {
		return fmt.Errorf("getting sessions of connection: %w", err)
	}

	var errs error
	for _, s := range sessions {
		errs = multierr.Append(errs, c.closeSession(ctx, s))
	}
	c.logger.Infow("connection closed", "connection", connection, "sessions", len(sessions))
	return errs
}

func (c *controller) Clone(ctx context.Context) (*entity.Session, error) {
	connection, err := mapper.ContextToConnectionUUID(ctx)
	if err != nil {
		return nil, err
	}
	s, err := c.newSession(ctx, connection)
	if err != nil {
		return nil, err
	}
	c.logger.Infow("session cloned", "connection", connection, "session", s.UUID)
	return s, nil
}

func (c *controller) Close(ctx context.Context) error {
	s, err := c.session(ctx)
	if err != nil {
		return err
	}
	return c.closeSession(ctx, s)
}

func (c *controller) Reset(ctx context.Context) ([]string, error) {
	s, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	engine, err := c.evaluator.NewEngine(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	s.Engine.Close()
	s.Engine = engine
	if err := c.sessions.Set(ctx, s); err != nil {
		engine.Close()
		return nil, err
	}

	c.logger.Infow("session reset", "session", s.UUID, "contextBound", c.registry.Bound())
	c.record(s.UUID, "reset-session", nil)
	return engine.Imports(), nil
}

func (c *controller) Imports(ctx context.Context) ([]string, error) {
	s, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.Engine.Imports(), nil
}

func (c *controller) AddImports(ctx context.Context, imports []string) ([]string, []string, error) {
	s, err := c.session(ctx)
	if err != nil {
		return nil, nil, err
	}
	current, diags := s.Engine.AddImports(ctx, imports)
	return current, diags, nil
}

func (c *controller) Eval(ctx context.Context, code string) (*entity.EvalResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.NoCodeOnWireError
	}
	s, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.Engine.Evaluate(ctx, code)
	if err != nil {
		return nil, err
	}
	c.record(s.UUID, code, res)
	return res, nil
}

func (c *controller) ListBindings(ctx context.Context) ([]string, error) {
	container := c.registry.Get()
	if container == nil {
		return nil, errors.ErrNoContextBound
	}
	names, err := hostctx.ComponentNames(container)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		typ, err := hostctx.ComponentType(container, name)
		if err != nil {
			typ = "?"
		}
		out = append(out, name+"\t"+typ)
	}
	return out, nil
}

func (c *controller) SnapshotSave(ctx context.Context, name, expr string, mode entity.SnapshotMode) (*entity.SnapshotEntry, error) {
	if name == "" {
		return nil, errors.NoNameOnWireError
	}
	if strings.TrimSpace(expr) == "" {
		return nil, errors.NoExprOnWireError
	}
	s, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	v, err := s.Engine.Value(ctx, expr)
	if err != nil {
		return nil, err
	}
	if mode == entity.SnapshotJSON {
		return c.snapshots.SaveJSON(ctx, name, v)
	}
	return c.snapshots.Pin(ctx, name, v)
}

func (c *controller) SnapshotLoad(ctx context.Context, name, variable string) (string, error) {
	if name == "" {
		return "", errors.NoNameOnWireError
	}
	s, err := c.session(ctx)
	if err != nil {
		return "", err
	}
	e, err := c.snapshots.Get(ctx, name)
	if err != nil {
		return "", err
	}

	value := e.Value
	if e.Mode == entity.SnapshotJSON {
		value = gjson.Parse(e.Payload).Value()
	}
	if variable == "" {
		variable = name
	}
	if err := s.Engine.Bind(variable, value); err != nil {
		return "", err
	}
	return variable, nil
}

func (c *controller) SnapshotList(ctx context.Context, pattern string) ([]*entity.SnapshotEntry, error) {
	return c.snapshots.List(ctx, pattern)
}

func (c *controller) SnapshotDelete(ctx context.Context, name string) error {
	if name == "" {
		return errors.NoNameOnWireError
	}
	return c.snapshots.Delete(ctx, name)
}

func (c *controller) SnapshotInfo(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", errors.NoNameOnWireError
	}
	e, err := c.snapshots.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return e.Info(), nil
}

func (c *controller) SnapshotMaterialize(ctx context.Context, name, typeName, target string) (*entity.SnapshotEntry, error) {
	if name == "" {
		return nil, errors.NoNameOnWireError
	}
	if typeName == "" {
		return nil, errors.NoTypeOnWireError
	}
	e, err := c.snapshots.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	payload := e.Payload
	if e.Mode == entity.SnapshotLive {
		raw, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding snapshot %q: %w", name, err)
		}
		payload = string(raw)
	}

	obj, err := c.evaluator.Materialize(ctx, typeName, payload)
	if err != nil {
		return nil, err
	}
	if target == "" {
		target = name
	}
	return c.snapshots.Pin(ctx, target, obj)
}

func (c *controller) newSession(ctx context.Context, connection uuid.UUID) (*entity.Session, error) {
	engine, err := c.evaluator.NewEngine(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	s := factory.Session(connection, engine)
	if err := c.sessions.Set(ctx, s); err != nil {
		engine.Close()
		return nil, err
	}
	return s, nil
}

func (c *controller) closeSession(ctx context.Context, s *entity.Session) error {
	s.Engine.Close()
	if err := c.sessions.Delete(ctx, s.UUID); err != nil {
		return fmt.Errorf("deleting session %s: %w", s.UUID, err)
	}
	c.logger.Infow("session closed", "session", s.UUID)
	return nil
}

// session resolves the session addressed by ctx. A session owned by another connection is
// reported as unknown.
func (c *controller) session(ctx context.Context) (*entity.Session, error) {
	connection, err := mapper.ContextToConnectionUUID(ctx)
	if err != nil {
		return nil, err
	}

	id, err := mapper.ContextToSessionUUID(ctx)
	if err != nil {
		sessions, err := c.sessions.GetAllFromConnection(ctx, connection)
		if err != nil {
			return nil, err
		}
		if len(sessions) == 0 {
			return nil, errors.NoSessionOnWireError
		}
		return sessions[0], nil
	}

	s, err := c.sessions.Get(ctx, id)
	if err != nil {
		if _, ok := errors.NotFoundUUID(err); ok {
			return nil, &errors.SessionNotFoundError{Session: id.String()}
		}
		return nil, err
	}
	if s.ConnectionID != connection {
		return nil, &errors.SessionNotFoundError{Session: id.String()}
	}
	return s, nil
}

// record appends an evaluation to the transcript, when enabled.
func (c *controller) record(id uuid.UUID, code string, res *entity.EvalResult) {
	if c.transcript == nil {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", id)
	for _, line := range strings.Split(strings.TrimRight(code, "\n"), "\n") {
		b.WriteString("> " + line + "\n")
	}
	if res != nil {
		if res.Out != "" {
			b.WriteString(res.Out)
			if !strings.HasSuffix(res.Out, "\n") {
				b.WriteString("\n")
			}
		}
		for _, v := range res.Values {
			b.WriteString("=> " + v + "\n")
		}
		for _, d := range res.Diagnostics {
			b.WriteString(d + "\n")
		}
	}

	c.transcriptMu.Lock()
	defer c.transcriptMu.Unlock()
	if _, err := io.WriteString(c.transcript, b.String()); err != nil {
		c.logger.Warnw("writing transcript", zap.Error(err))
	}
}
