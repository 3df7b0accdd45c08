package mapper

import (
	"strings"

	"github.com/gofrs/uuid"
	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/errors"
	"github.com/uber/devrepl/src/devrepl/internal/wire"
)

// Wire keys shared by requests and responses.
const (
	KeyOp         = "op"
	KeyID         = "id"
	KeySession    = "session"
	KeyCode       = "code"
	KeyExpr       = "expr"
	KeyName       = "name"
	KeyVar        = "var"
	KeyTarget     = "target"
	KeyType       = "type"
	KeyImports    = "imports"
	KeyValue      = "value"
	KeyOut        = "out"
	KeyErr        = "err"
	KeyMessage    = "message"
	KeyStatus     = "status"
	KeyOps        = "ops"
	KeyNewSession = "new-session"
)

// Status values.
const (
	StatusDone      = "done"
	StatusUnknownOp = "unknown-op"
)

// WireToSessionUUID parses the session id of a request.
func WireToSessionUUID(msg wire.Message) (uuid.UUID, error) {
	raw := strings.TrimSpace(msg[KeySession])
	if raw == "" {
		return uuid.Nil, errors.NoSessionOnWireError
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, &errors.SessionNotFoundError{Session: raw}
	}
	return id, nil
}

// WireToImports splits a newline separated import list, dropping blank lines.
func WireToImports(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ImportsToWire joins an import set for the imports key.
func ImportsToWire(imports []string) string {
	return strings.Join(imports, "\n")
}

// Reply creates a response to req carrying its id and, when present, its session.
func Reply(req wire.Message, kv ...string) wire.Message {
	out := wire.Message{KeyID: req[KeyID]}
	if s := req[KeySession]; s != "" {
		out[KeySession] = s
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i]] = kv[i+1]
	}
	return out
}

// Done creates the terminal response to req.
func Done(req wire.Message) wire.Message {
	return Reply(req, KeyStatus, StatusDone)
}

// ErrorToMessages creates the error response followed by the terminal response.
func ErrorToMessages(req wire.Message, err error) []wire.Message {
	return []wire.Message{Reply(req, KeyErr, err.Error()), Done(req)}
}

// EvalResultToMessages creates the responses of an eval request: captured output, one message per
// value, diagnostics, the updated import set and the terminal response.
func EvalResultToMessages(req wire.Message, res *entity.EvalResult) []wire.Message {
	var out []wire.Message
	if res.Out != "" {
		out = append(out, Reply(req, KeyOut, res.Out))
	}
	for _, v := range res.Values {
		out = append(out, Reply(req, KeyValue, v))
	}
	if len(res.Diagnostics) > 0 {
		out = append(out, Reply(req, KeyErr, strings.Join(res.Diagnostics, "\n")))
	}
	last := Reply(req, KeyImports, ImportsToWire(res.Imports))
	if res.Message != "" {
		last[KeyMessage] = res.Message
	}
	out = append(out, last, Done(req))
	return out
}

// HotPatchResultToMessages creates the responses of a hot-patch request.
func HotPatchResultToMessages(req wire.Message, res *entity.HotPatchResult) []wire.Message {
	msg := Reply(req)
	if res.Message != "" {
		msg[KeyValue] = res.Message
	}
	if !res.Success {
		e := res.Error
		if e == "" {
			e = "hot-patch failed"
		}
		msg[KeyErr] = e
	}
	return []wire.Message{msg, Done(req)}
}

// BindResultToMessages creates the responses of a bind-context request.
func BindResultToMessages(req wire.Message, res *entity.BindResult) []wire.Message {
	value := "false"
	if res.Bound {
		value = "true"
	}
	return []wire.Message{Reply(req, KeyValue, value, KeyMessage, res.Message), Done(req)}
}
