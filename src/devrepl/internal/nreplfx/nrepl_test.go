package nreplfx

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/devrepl/src/devrepl/internal/serverinfofile"
	"github.com/uber/devrepl/src/devrepl/internal/serverinfofile/serverinfofilemock"
	"github.com/uber/devrepl/src/devrepl/internal/wire"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newProvider(t *testing.T, values map[string]any) config.Provider {
	provider, err := config.NewStaticProvider(values)
	require.NoError(t, err)
	return provider
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		params    func(t *testing.T) Params
		wantFrame int64
		errorMsg  string
	}{
		{
			name:     "missing required params",
			params:   func(t *testing.T) Params { return Params{} },
			errorMsg: "required parameters are missing",
		},
		{
			name: "valid configuration",
			params: func(t *testing.T) Params {
				return Params{
					Lifecycle: fxtest.NewLifecycle(t),
					Config: newProvider(t, map[string]any{
						"nrepl": map[string]any{"address": "127.0.0.1:0", "maxFrameBytes": 1024},
					}),
				}
			},
			wantFrame: 1024,
		},
		{
			name: "default frame limit",
			params: func(t *testing.T) Params {
				return Params{
					Lifecycle: fxtest.NewLifecycle(t),
					Config:    newProvider(t, map[string]any{"nrepl": map[string]any{"address": ":7888"}}),
				}
			},
			wantFrame: _defaultMaxFrameBytes,
		},
		{
			name: "missing address",
			params: func(t *testing.T) Params {
				return Params{
					Lifecycle: fxtest.NewLifecycle(t),
					Config:    newProvider(t, map[string]any{"nrepl": map[string]any{}}),
				}
			},
			errorMsg: `missing field "nrepl.address" in config`,
		},
		{
			name: "incorrectly formatted entry",
			params: func(t *testing.T) Params {
				return Params{
					Lifecycle: fxtest.NewLifecycle(t),
					Config: newProvider(t, map[string]any{
						"nrepl": map[string]any{"address": ":7888", "maxFrameBytes": "lots"},
					}),
				}
			},
			errorMsg: `getting config field "nrepl.maxFrameBytes"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.params(t))
			if tt.errorMsg != "" {
				assert.ErrorContains(t, err, tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrame, m.(*module).MaxFrameBytes)
			assert.Nil(t, m.Addr())
		})
	}
}

func TestRegisterConnectionManager(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := module{}

	mockConnectionManager := NewMockConnectionManager(ctrl)

	// first call should return no error
	err := m.RegisterConnectionManager(mockConnectionManager)
	assert.NoError(t, err)

	// duplicate call should return error
	err = m.RegisterConnectionManager(mockConnectionManager)
	assert.Error(t, err)
}

func TestServeConn(t *testing.T) {
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	newServer := func(cm ConnectionManager) *module {
		return &module{
			logger:        zap.NewNop().Sugar(),
			conns:         map[net.Conn]struct{}{},
			connectionMgr: cm,
		}
	}

	t.Run("no connection manager registered", func(t *testing.T) {
		server, client := net.Pipe()
		defer client.Close()
		assert.Error(t, newServer(nil).ServeConn(ctx, server))
	})

	t.Run("failed NewConnection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cm := NewMockConnectionManager(ctrl)
		cm.EXPECT().NewConnection(gomock.Any()).Return(nil, errors.New("sample error"))

		server, client := net.Pipe()
		defer client.Close()
		assert.ErrorContains(t, newServer(cm).ServeConn(ctx, server), "sample error")
	})

	t.Run("responses written in order until disconnect", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := NewMockRouter(ctrl)
		router.EXPECT().UUID().Return(id).AnyTimes()
		router.EXPECT().HandleMessage(gomock.Any(), wire.Message{"op": "eval", "id": "1", "code": "1+1"}).Return([]wire.Message{
			{"id": "1", "value": "2"},
			{"id": "1", "status": "done"},
		})
		router.EXPECT().HandleMessage(gomock.Any(), wire.Message{"op": "describe", "id": "2"}).Return([]wire.Message{
			{"id": "2", "status": "done"},
		})

		cm := NewMockConnectionManager(ctrl)
		cm.EXPECT().NewConnection(gomock.Any()).Return(router, nil)
		cm.EXPECT().RemoveConnection(gomock.Any(), id)

		server, client := net.Pipe()
		errCh := make(chan error, 1)
		go func() { errCh <- newServer(cm).ServeConn(ctx, server) }()

		dec := wire.NewDecoder(client, 0)
		_, err := client.Write(wire.Marshal(wire.Message{"op": "eval", "id": "1", "code": "1+1"}))
		require.NoError(t, err)

		got, err := dec.Decode()
		require.NoError(t, err)
		assert.Equal(t, "2", got["value"])
		got, err = dec.Decode()
		require.NoError(t, err)
		assert.Equal(t, "done", got["status"])

		_, err = client.Write(wire.Marshal(wire.Message{"op": "describe", "id": "2"}))
		require.NoError(t, err)
		got, err = dec.Decode()
		require.NoError(t, err)
		assert.Equal(t, "2", got["id"])

		require.NoError(t, client.Close())
		assert.NoError(t, <-errCh)
	})

	t.Run("malformed frame closes only the connection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		router := NewMockRouter(ctrl)
		router.EXPECT().UUID().Return(id).AnyTimes()

		cm := NewMockConnectionManager(ctrl)
		cm.EXPECT().NewConnection(gomock.Any()).Return(router, nil)
		cm.EXPECT().RemoveConnection(gomock.Any(), id)

		server, client := net.Pipe()
		defer client.Close()
		errCh := make(chan error, 1)
		go func() { errCh <- newServer(cm).ServeConn(ctx, server) }()

		_, err := client.Write([]byte("x"))
		require.NoError(t, err)
		assert.ErrorContains(t, <-errCh, "reading frame")
	})
}

func TestLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	id := uuid.Must(uuid.NewV4())

	infoFile := serverinfofilemock.NewMockServerInfoFile(ctrl)
	infoFile.EXPECT().UpdateField(serverinfofile.FieldAddress, gomock.Any()).Return(nil)

	router := NewMockRouter(ctrl)
	router.EXPECT().UUID().Return(id).AnyTimes()
	router.EXPECT().HandleMessage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg wire.Message) []wire.Message {
			return []wire.Message{{"id": msg["id"], "status": "done"}}
		})

	cm := NewMockConnectionManager(ctrl)
	cm.EXPECT().NewConnection(gomock.Any()).Return(router, nil)
	cm.EXPECT().RemoveConnection(gomock.Any(), id)

	lc := fxtest.NewLifecycle(t)
	m, err := New(Params{
		Config:         newProvider(t, map[string]any{"nrepl": map[string]any{"address": "127.0.0.1:0"}}),
		Lifecycle:      lc,
		Logger:         zap.NewNop().Sugar(),
		ServerInfoFile: infoFile,
	})
	require.NoError(t, err)
	require.NoError(t, m.RegisterConnectionManager(cm))

	lc.RequireStart()
	require.NotNil(t, m.Addr())

	conn, err := net.Dial("tcp", m.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(wire.Marshal(wire.Message{"op": "describe", "id": "7"}))
	require.NoError(t, err)
	got, err := wire.NewDecoder(conn, 0).Decode()
	require.NoError(t, err)
	assert.Equal(t, wire.Message{"id": "7", "status": "done"}, got)

	lc.RequireStop()
	assert.Nil(t, m.Addr())
}

func TestStartWithoutConnectionManager(t *testing.T) {
	m := &module{Address: "127.0.0.1:0", logger: zap.NewNop().Sugar()}
	assert.Error(t, m.OnStart(context.Background()))
}

func TestStartBindFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	m := &module{
		Address:       ln.Addr().String(),
		logger:        zap.NewNop().Sugar(),
		conns:         map[net.Conn]struct{}{},
		connectionMgr: NewMockConnectionManager(ctrl),
	}
	assert.ErrorContains(t, m.OnStart(context.Background()), "binding")
}

// scriptedListener returns the queued accept results in order, then blocks until closed.
type scriptedListener struct {
	mu      sync.Mutex
	results []func() (net.Conn, error)
	closed  chan struct{}
	once    sync.Once
}

func newScriptedListener(results ...func() (net.Conn, error)) *scriptedListener {
	return &scriptedListener{results: results, closed: make(chan struct{})}
}

func (l *scriptedListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	if len(l.results) > 0 {
		next := l.results[0]
		l.results = l.results[1:]
		l.mu.Unlock()
		return next()
	}
	l.mu.Unlock()
	<-l.closed
	return nil, net.ErrClosed
}

func (l *scriptedListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *scriptedListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func TestAcceptDuringStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	server, client := net.Pipe()
	defer client.Close()

	// The connection is handed out only once the listener has been closed by OnStop.
	var ln *scriptedListener
	ln = newScriptedListener(func() (net.Conn, error) {
		<-ln.closed
		return server, nil
	})

	m := &module{
		logger:        zap.NewNop().Sugar(),
		conns:         map[net.Conn]struct{}{},
		connectionMgr: NewMockConnectionManager(ctrl),
		ln:            ln,
	}
	m.wg.Add(1)
	go m.accept(ln)

	stopped := make(chan error, 1)
	go func() { stopped <- m.OnStop(context.Background()) }()

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not finish")
	}

	_, err := client.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
	assert.Empty(t, m.conns)
}

func TestAcceptRetriesTemporaryErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	id := uuid.Must(uuid.NewV4())
	server, client := net.Pipe()

	router := NewMockRouter(ctrl)
	router.EXPECT().UUID().Return(id).AnyTimes()
	router.EXPECT().HandleMessage(gomock.Any(), gomock.Any()).Return([]wire.Message{{"id": "1", "status": "done"}})

	cm := NewMockConnectionManager(ctrl)
	cm.EXPECT().NewConnection(gomock.Any()).Return(router, nil)
	cm.EXPECT().RemoveConnection(gomock.Any(), id)

	tooMany := errors.New("accept tcp: too many open files")
	ln := newScriptedListener(
		func() (net.Conn, error) { return nil, tooMany },
		func() (net.Conn, error) { return nil, tooMany },
		func() (net.Conn, error) { return server, nil },
	)

	m := &module{
		logger:        zap.NewNop().Sugar(),
		conns:         map[net.Conn]struct{}{},
		connectionMgr: cm,
		ln:            ln,
	}
	m.wg.Add(1)
	go m.accept(ln)

	_, err := client.Write(wire.Marshal(wire.Message{"op": "describe", "id": "1"}))
	require.NoError(t, err)
	got, err := wire.NewDecoder(client, 0).Decode()
	require.NoError(t, err)
	assert.Equal(t, "done", got["status"])

	require.NoError(t, m.OnStop(context.Background()))
	client.Close()
}
