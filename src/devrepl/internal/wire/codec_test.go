package wire

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/devrepl/src/devrepl/internal/errors"
)

func TestMarshal(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "empty",
			msg:  Message{},
			want: "de",
		},
		{
			name: "keys sorted",
			msg:  Message{"op": "eval", "code": "1+1", "id": "7"},
			want: "d4:code3:1+12:id1:72:op4:evale",
		},
		{
			name: "byte length of multibyte values",
			msg:  Message{"out": "é"},
			want: "d3:out2:ée",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(Marshal(tt.msg)))
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("multiple frames then clean EOF", func(t *testing.T) {
		stream := string(Marshal(Message{"op": "clone", "id": "1"})) + string(Marshal(Message{"op": "describe"}))
		d := NewDecoder(strings.NewReader(stream), 0)

		first, err := d.Decode()
		require.NoError(t, err)
		assert.Equal(t, Message{"op": "clone", "id": "1"}, first)

		second, err := d.Decode()
		require.NoError(t, err)
		assert.Equal(t, Message{"op": "describe"}, second)

		_, err = d.Decode()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("integer values become decimal strings", func(t *testing.T) {
		msg, err := Unmarshal([]byte("d2:idi-42e2:op4:evale"))
		require.NoError(t, err)
		assert.Equal(t, "-42", msg["id"])
	})

	t.Run("unsorted keys are accepted", func(t *testing.T) {
		msg, err := Unmarshal([]byte("d2:op4:eval2:id1:9e"))
		require.NoError(t, err)
		assert.Equal(t, Message{"op": "eval", "id": "9"}, msg)
	})

	t.Run("values containing framing bytes", func(t *testing.T) {
		in := Message{"code": "d3:abce\n:e"}
		msg, err := Unmarshal(Marshal(in))
		require.NoError(t, err)
		assert.Equal(t, in, msg)
	})
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "wrong leading byte", input: "l1:ae"},
		{name: "truncated after start", input: "d"},
		{name: "truncated key", input: "d5:ab"},
		{name: "non numeric length", input: "d2x:ab1:ce"},
		{name: "missing value", input: "d2:op"},
		{name: "list value", input: "d2:opl1:aee"},
		{name: "bad integer", input: "d2:idi1-2ee"},
		{name: "prefix too long", input: "d99999999999999999999:ae"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.input))
			require.Error(t, err)
			var fe *errors.FrameError
			assert.True(t, errors.As(err, &fe), "got %T: %v", err, err)
		})
	}
}

func TestDecodeSizeLimit(t *testing.T) {
	d := NewDecoder(strings.NewReader("d4:code10:0123456789e"), 5)
	_, err := d.Decode()
	var se *errors.FrameSizeLimitError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, int64(10), se.Size)
	assert.Equal(t, int64(5), se.Limit)
}

func TestEncoder(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	require.NoError(t, e.Encode(Message{"status": "done"}))
	require.NoError(t, e.Encode(Message{"value": "42"}))
	assert.Equal(t, "d6:status4:donee"+"d5:value2:42e", buf.String())
}

func TestClone(t *testing.T) {
	m := Message{"a": "1"}
	c := m.Clone()
	c["a"] = "2"
	assert.Equal(t, "1", m["a"])
}
