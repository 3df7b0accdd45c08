package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/devrepl/src/devrepl/gateway/nrepl-client/nreplclientmock"
	"github.com/uber/devrepl/src/devrepl/internal/fs/fsmock"
	"github.com/uber/devrepl/src/devrepl/internal/wire"
	"go.uber.org/mock/gomock"
)

type scriptedPrompter struct {
	lines []string
	errs  map[int]error
	calls int
}

func (p *scriptedPrompter) Prompt(string) (string, error) {
	defer func() { p.calls++ }()
	if err, ok := p.errs[p.calls]; ok {
		return "", err
	}
	if p.calls >= len(p.lines) {
		return "", io.EOF
	}
	return p.lines[p.calls], nil
}

func TestReadInput(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		errs  map[int]error
		want  []string
	}{
		{
			name:  "code up to a blank line",
			lines: []string{"function f(x)", "  return x + 1", "end", "", "f(41)", ""},
			want:  []string{"function f(x)\n  return x + 1\nend", "f(41)"},
		},
		{
			name:  "commands end at the line",
			lines: []string{"", ":imports", ":quit"},
			want:  []string{":imports", ":quit"},
		},
		{
			name:  "colon inside code is not a command",
			lines: []string{"x = 1", ":count()", ""},
			want:  []string{"x = 1\n:count()"},
		},
		{
			name:  "end of input flushes pending code",
			lines: []string{"x = 1"},
			want:  []string{"x = 1"},
		},
		{
			name:  "ctrl-c discards pending code",
			lines: []string{"x = 1", "", "y = 2", ""},
			errs:  map[int]error{1: liner.ErrPromptAborted},
			want:  []string{"y = 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// An aborted prompt still consumes its slot in lines.
			p := &scriptedPrompter{lines: tt.lines, errs: tt.errs}

			var got []string
			for {
				in, ok := readInput(p)
				if !ok {
					break
				}
				got = append(got, in)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("code is evaluated", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := nreplclientmock.NewMockClient(ctrl)
		client.EXPECT().Do(ctx, wire.Message{"op": "eval", "code": "print('hi')\nf(41)"}).Return([]wire.Message{
			{"id": "2", "out": "hi\n"},
			{"id": "2", "value": "42"},
			{"id": "2", "imports": "import json"},
			{"id": "2", "status": "done"},
		}, nil)

		var out bytes.Buffer
		r := &repl{client: client, out: &out}
		quit, err := r.submit(ctx, "print('hi')\nf(41)")
		require.NoError(t, err)
		assert.False(t, quit)
		assert.Equal(t, "hi\n42\n", out.String())
	})

	t.Run("diagnostics and messages", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := nreplclientmock.NewMockClient(ctrl)
		client.EXPECT().Do(ctx, gomock.Any()).Return([]wire.Message{
			{"id": "3", "err": "! unresolved import: shop.Cart"},
			{"id": "3", "imports": "import json\nimport shop.Cart", "message": "Imports updated."},
			{"id": "3", "status": "done"},
		}, nil)

		var out bytes.Buffer
		r := &repl{client: client, out: &out}
		_, err := r.submit(ctx, "import shop.Cart")
		require.NoError(t, err)
		assert.Equal(t, "! unresolved import: shop.Cart\nImports updated.\n", out.String())
	})

	t.Run("imports are shown for the imports command", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := nreplclientmock.NewMockClient(ctrl)
		client.EXPECT().Do(ctx, wire.Message{"op": "imports-get"}).Return([]wire.Message{
			{"id": "4", "imports": "import json\nimport snapshot"},
			{"id": "4", "status": "done"},
		}, nil)

		var out bytes.Buffer
		r := &repl{client: client, out: &out}
		_, err := r.submit(ctx, ":imports")
		require.NoError(t, err)
		assert.Equal(t, "import json\nimport snapshot\n", out.String())
	})

	t.Run("patch reads the script", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := nreplclientmock.NewMockClient(ctrl)
		fsMock := fsmock.NewMockDevreplFS(ctrl)
		fsMock.EXPECT().ReadFile("cart.lua").Return([]byte(`class "Cart" {}`), nil)
		client.EXPECT().Do(ctx, wire.Message{"op": "hot-patch", "code": `class "Cart" {}`}).Return([]wire.Message{
			{"id": "5", "value": "Reloaded types: Cart (+1 -1 lines)"},
			{"id": "5", "status": "done"},
		}, nil)

		var out bytes.Buffer
		r := &repl{client: client, fs: fsMock, out: &out}
		_, err := r.submit(ctx, ":patch cart.lua")
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Reloaded types: Cart")
	})

	t.Run("patch of a missing file sends nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		fsMock := fsmock.NewMockDevreplFS(ctrl)
		fsMock.EXPECT().ReadFile("gone.lua").Return(nil, errors.New("no such file"))

		r := &repl{client: nreplclientmock.NewMockClient(ctrl), fs: fsMock, out: io.Discard}
		_, err := r.submit(ctx, ":patch gone.lua")
		assert.ErrorContains(t, err, "reading gone.lua: no such file")
	})

	t.Run("unknown op", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := nreplclientmock.NewMockClient(ctrl)
		client.EXPECT().Do(ctx, gomock.Any()).Return([]wire.Message{
			{"id": "6", "status": "unknown-op"},
			{"id": "6", "status": "done"},
		}, nil)

		var out bytes.Buffer
		r := &repl{client: client, out: &out}
		_, err := r.submit(ctx, ":snap list")
		require.NoError(t, err)
		assert.Equal(t, "server does not support snapshot-list\n", out.String())
	})

	t.Run("transport failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := nreplclientmock.NewMockClient(ctrl)
		client.EXPECT().Do(ctx, gomock.Any()).Return(nil, errors.New("connection reset"))

		r := &repl{client: client, out: io.Discard}
		_, err := r.submit(ctx, "f(1)")
		assert.ErrorContains(t, err, "connection reset")
	})

	t.Run("quit and help stay local", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		var out bytes.Buffer
		r := &repl{client: nreplclientmock.NewMockClient(ctrl), out: &out}

		quit, err := r.submit(ctx, ":help")
		require.NoError(t, err)
		assert.False(t, quit)
		assert.Contains(t, out.String(), ":patch <file>")

		quit, err = r.submit(ctx, ":quit")
		require.NoError(t, err)
		assert.True(t, quit)
	})

	t.Run("colors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := nreplclientmock.NewMockClient(ctrl)
		client.EXPECT().Do(ctx, gomock.Any()).Return([]wire.Message{{"id": "7", "value": "1"}, {"id": "7", "status": "done"}}, nil)

		var out bytes.Buffer
		r := &repl{client: client, out: &out, color: true}
		_, err := r.submit(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, green("1")+"\n", out.String())
	})
}
