// Package nreplfx owns the TCP listener of the session protocol and runs one reader loop per
// client connection.
package nreplfx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	derrors "github.com/uber/devrepl/src/devrepl/internal/errors"
	"github.com/uber/devrepl/src/devrepl/internal/serverinfofile"
	"github.com/uber/devrepl/src/devrepl/internal/wire"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_configKeyAddress  = "nrepl.address"
	_configKeyMaxFrame = "nrepl.maxFrameBytes"

	_defaultMaxFrameBytes = 16 << 20

	_minAcceptBackoff = 5 * time.Millisecond
	_maxAcceptBackoff = time.Second
)

// Module is an fx module serving the session protocol.
var Module = fx.Provide(New)

// NREPLModule manages the protocol listener and its connections.
type NREPLModule interface {
	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error
	ServeConn(ctx context.Context, conn net.Conn) error
	RegisterConnectionManager(connectionManager ConnectionManager) error
	// Addr is the bound listen address, available after start.
	Addr() net.Addr
}

// Router handles the requests of one connection. HandleMessage returns every response of the
// request, the last one carrying the done status.
type Router interface {
	HandleMessage(ctx context.Context, msg wire.Message) []wire.Message
	UUID() uuid.UUID
}

// ConnectionManager tracks active connections and provides their Routers.
type ConnectionManager interface {
	NewConnection(ctx context.Context) (router Router, err error)
	RemoveConnection(ctx context.Context, id uuid.UUID)
}

type module struct {
	Address       string `yaml:"address"`
	MaxFrameBytes int64  `yaml:"maxFrameBytes"`

	connectionMgr  ConnectionManager
	logger         *zap.SugaredLogger
	serverInfoFile serverinfofile.ServerInfoFile

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// Params define values to be used by the protocol module.
type Params struct {
	fx.In

	Config         config.Provider
	Lifecycle      fx.Lifecycle
	Logger         *zap.SugaredLogger
	ServerInfoFile serverinfofile.ServerInfoFile
}

// New creates a protocol server listening on the configured address once started.
func New(p Params) (NREPLModule, error) {
	if p.Lifecycle == nil || p.Config == nil {
		return nil, errors.New("required parameters are missing")
	}

	m := &module{
		logger:         p.Logger,
		serverInfoFile: p.ServerInfoFile,
		conns:          map[net.Conn]struct{}{},
	}
	if err := m.processConfig(p.Config); err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: m.OnStart,
		OnStop:  m.OnStop,
	})
	return m, nil
}

// OnStart binds the listener and begins accepting connections. A bind failure fails startup.
func (m *module) OnStart(ctx context.Context) error {
	if m.connectionMgr == nil {
		return errors.New("cannot start without a connection manager")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", m.Address)
	if err != nil {
		return fmt.Errorf("binding %s: %w", m.Address, err)
	}
	m.mu.Lock()
	m.ln = ln
	m.mu.Unlock()

	if err := m.serverInfoFile.UpdateField(serverinfofile.FieldAddress, ln.Addr().String()); err != nil {
		m.logger.Warnw("unable to publish listen address", zap.Error(err))
	}
	m.logger.Warnw("started nREPL inbound", zap.String("address", ln.Addr().String()))

	m.wg.Add(1)
	go m.accept(ln)
	return nil
}

// OnStop closes the listener and every open connection, then waits for their loops to finish.
func (m *module) OnStop(ctx context.Context) error {
	m.mu.Lock()
	var err error
	if m.ln != nil {
		err = m.ln.Close()
		m.ln = nil
	}
	for c := range m.conns {
		c.Close()
	}
	m.mu.Unlock()

	m.wg.Wait()
	return err
}

func (m *module) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln == nil {
		return nil
	}
	return m.ln.Addr()
}

func (m *module) accept(ln net.Listener) {
	defer m.wg.Done()
	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			if backoff == 0 {
				backoff = _minAcceptBackoff
			} else {
				backoff *= 2
			}
			if backoff > _maxAcceptBackoff {
				backoff = _maxAcceptBackoff
			}
			m.logger.Warnw("accept failed, retrying", zap.Duration("backoff", backoff), zap.Error(err))
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		m.mu.Lock()
		if m.ln != ln {
			// Accepted while stopping.
			m.mu.Unlock()
			conn.Close()
			return
		}
		m.conns[conn] = struct{}{}
		m.wg.Add(1)
		m.mu.Unlock()

		go func() {
			defer m.wg.Done()
			if err := m.ServeConn(context.Background(), conn); err != nil {
				m.logger.Warnw("connection closed with error", zap.Error(err))
			}
		}()
	}
}

// ServeConn reads requests from conn one at a time and writes all responses of a request before
// reading the next one. It returns when the peer disconnects or sends a malformed frame.
func (m *module) ServeConn(ctx context.Context, conn net.Conn) error {
	defer func() {
		conn.Close()
		m.mu.Lock()
		delete(m.conns, conn)
		m.mu.Unlock()
	}()

	if m.connectionMgr == nil {
		return errors.New("cannot serve connection, no connection manager set")
	}
	router, err := m.connectionMgr.NewConnection(ctx)
	if err != nil {
		return err
	}
	m.logger.Infow("client connected", zap.Stringer("uuid", router.UUID()), zap.Stringer("remote", conn.RemoteAddr()))
	defer func() {
		m.connectionMgr.RemoveConnection(ctx, router.UUID())
		m.logger.Infow("client disconnected", zap.Stringer("uuid", router.UUID()))
	}()

	dec := wire.NewDecoder(conn, m.MaxFrameBytes)
	enc := wire.NewEncoder(conn)
	for {
		msg, err := dec.Decode()
		if err != nil {
			var fe *derrors.FrameError
			var fse *derrors.FrameSizeLimitError
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				return nil
			case errors.As(err, &fe), errors.As(err, &fse):
				return fmt.Errorf("reading frame: %w", err)
			default:
				return nil
			}
		}

		for _, resp := range router.HandleMessage(ctx, msg) {
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
		}
	}
}

// RegisterConnectionManager sets the connection manager, which keeps track of active connections
// and provides a Router implementation.
func (m *module) RegisterConnectionManager(connectionMgr ConnectionManager) error {
	if m.connectionMgr != nil {
		return errors.New("cannot register a duplicate connection manager")
	}
	m.connectionMgr = connectionMgr
	return nil
}

func (m *module) processConfig(cfg config.Provider) error {
	if err := cfg.Get(_configKeyAddress).Populate(&m.Address); err != nil {
		return fmt.Errorf("getting config field %q: %w", _configKeyAddress, err)
	}
	if m.Address == "" {
		return fmt.Errorf("missing field %q in config", _configKeyAddress)
	}

	if err := cfg.Get(_configKeyMaxFrame).Populate(&m.MaxFrameBytes); err != nil {
		return fmt.Errorf("getting config field %q: %w", _configKeyMaxFrame, err)
	}
	if m.MaxFrameBytes <= 0 {
		m.MaxFrameBytes = _defaultMaxFrameBytes
	}
	return nil
}
