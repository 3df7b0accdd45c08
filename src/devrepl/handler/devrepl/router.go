package devrepl

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/gofrs/uuid"
	tally "github.com/uber-go/tally/v4"
	controller "github.com/uber/devrepl/src/devrepl/controller/devrepl"
	"github.com/uber/devrepl/src/devrepl/controller/discovery"
	"github.com/uber/devrepl/src/devrepl/controller/hotpatch"
	"github.com/uber/devrepl/src/devrepl/internal/wire"
	"github.com/uber/devrepl/src/devrepl/mapper"
	"go.uber.org/zap"
)

// Supported ops.
const (
	OpClone               = "clone"
	OpClose               = "close"
	OpDescribe            = "describe"
	OpEval                = "eval"
	OpHotPatch            = "hot-patch"
	OpBindContext         = "bind-context"
	OpResetSession        = "reset-session"
	OpImportsGet          = "imports-get"
	OpImportsAdd          = "imports-add"
	OpListBindings        = "list-bindings"
	OpSnapshotSave        = "snapshot-save"
	OpSnapshotSaveJSON    = "snapshot-save-json"
	OpSnapshotLoad        = "snapshot-load"
	OpSnapshotList        = "snapshot-list"
	OpSnapshotDelete      = "snapshot-delete"
	OpSnapshotInfo        = "snapshot-info"
	OpSnapshotMaterialize = "snapshot-materialize"
)

type nreplRouter struct {
	devrepl   controller.Controller
	hotpatch  hotpatch.Controller
	discovery discovery.Controller
	uuid      uuid.UUID
	logger    *zap.SugaredLogger
	stats     tally.Scope
}

// _supportedOps lists the ops answered by HandleMessage, in the order describe reports them.
var _supportedOps = []string{
	OpBindContext,
	OpClone,
	OpClose,
	OpDescribe,
	OpEval,
	OpHotPatch,
	OpImportsAdd,
	OpImportsGet,
	OpListBindings,
	OpResetSession,
	OpSnapshotDelete,
	OpSnapshotInfo,
	OpSnapshotList,
	OpSnapshotLoad,
	OpSnapshotMaterialize,
	OpSnapshotSave,
	OpSnapshotSaveJSON,
}

// Ops returns the supported op names in sorted order.
func Ops() []string {
	return append([]string(nil), _supportedOps...)
}

// HandleMessage handles routing for a single request. Every returned sequence ends with a message
// carrying the done status.
func (r *nreplRouter) HandleMessage(ctx context.Context, req wire.Message) (out []wire.Message) {
	ctx = mapper.ContextWithConnection(ctx, r.uuid)
	op := req[mapper.KeyOp]

	if !slices.Contains(_supportedOps, op) {
		return r.unknownOp(req)
	}
	r.stats.Tagged(map[string]string{"op": op}).Counter("requests").Inc(1)

	defer func() {
		if p := recover(); p != nil {
			r.logger.Warnw("request handler panicked", "op", op, "id", req[mapper.KeyID], "panic", p)
			out = mapper.ErrorToMessages(req, fmt.Errorf("internal error handling %s: %v", op, p))
		}
	}()

	switch op {
	// Session related ops.
	case OpClone:
		return r.clone(ctx, req)

	case OpClose:
		return r.close(ctx, req)

	case OpDescribe:
		return r.describe(ctx, req)

	case OpResetSession:
		return r.resetSession(ctx, req)

	// Evaluation related ops.
	case OpEval:
		return r.eval(ctx, req)

	case OpImportsGet:
		return r.importsGet(ctx, req)

	case OpImportsAdd:
		return r.importsAdd(ctx, req)

	case OpListBindings:
		return r.listBindings(ctx, req)

	// Host related ops.
	case OpHotPatch:
		return r.hotPatch(ctx, req)

	case OpBindContext:
		return r.bindContext(ctx, req)

	// Snapshot related ops.
	case OpSnapshotSave:
		return r.snapshotSave(ctx, req)

	case OpSnapshotSaveJSON:
		return r.snapshotSaveJSON(ctx, req)

	case OpSnapshotLoad:
		return r.snapshotLoad(ctx, req)

	case OpSnapshotList:
		return r.snapshotList(ctx, req)

	case OpSnapshotDelete:
		return r.snapshotDelete(ctx, req)

	case OpSnapshotInfo:
		return r.snapshotInfo(ctx, req)

	case OpSnapshotMaterialize:
		return r.snapshotMaterialize(ctx, req)

	default:
		return r.unknownOp(req)
	}
}

func (r *nreplRouter) unknownOp(req wire.Message) []wire.Message {
	r.stats.Counter("unknown_ops").Inc(1)
	r.logger.Infow("unknown op", "op", req[mapper.KeyOp], "id", req[mapper.KeyID])
	return []wire.Message{mapper.Reply(req, mapper.KeyStatus, mapper.StatusUnknownOp), mapper.Done(req)}
}

func (r *nreplRouter) UUID() uuid.UUID {
	return r.uuid
}

// withSession adds the session named by the request to ctx. Requests without a session use the
// oldest session of the connection.
func withSession(ctx context.Context, req wire.Message) (context.Context, error) {
	if strings.TrimSpace(req[mapper.KeySession]) == "" {
		return ctx, nil
	}
	id, err := mapper.WireToSessionUUID(req)
	if err != nil {
		return ctx, err
	}
	return mapper.ContextWithSession(ctx, id), nil
}

func (r *nreplRouter) describe(ctx context.Context, req wire.Message) []wire.Message {
	return []wire.Message{
		mapper.Reply(req, mapper.KeyOps, strings.Join(Ops(), ",")),
		mapper.Done(req),
	}
}
