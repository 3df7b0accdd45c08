package devrepl

import (
	"context"
	"fmt"
	"strings"

	"github.com/uber/devrepl/src/devrepl/entity"
	"github.com/uber/devrepl/src/devrepl/internal/errors"
	"github.com/uber/devrepl/src/devrepl/internal/wire"
	"github.com/uber/devrepl/src/devrepl/mapper"
)

// snapshotSave pins the value of expr as a live entry. The value reports the outcome in words.
func (r *nreplRouter) snapshotSave(ctx context.Context, req wire.Message) []wire.Message {
	ctx, err := withSession(ctx, req)
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	e, err := r.devrepl.SnapshotSave(ctx, req[mapper.KeyName], req[mapper.KeyExpr], entity.SnapshotLive)
	if err != nil {
		return []wire.Message{
			mapper.Reply(req, mapper.KeyValue, "Failed: "+err.Error(), mapper.KeyErr, err.Error()),
			mapper.Done(req),
		}
	}
	return []wire.Message{
		mapper.Reply(req, mapper.KeyValue, fmt.Sprintf("Saved: %s (%s)", e.Name, e.TypeName)),
		mapper.Done(req),
	}
}

func (r *nreplRouter) snapshotSaveJSON(ctx context.Context, req wire.Message) []wire.Message {
	ctx, err := withSession(ctx, req)
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	if _, err := r.devrepl.SnapshotSave(ctx, req[mapper.KeyName], req[mapper.KeyExpr], entity.SnapshotJSON); err != nil {
		return []wire.Message{
			mapper.Reply(req, mapper.KeyValue, "false", mapper.KeyErr, err.Error()),
			mapper.Done(req),
		}
	}
	return []wire.Message{mapper.Reply(req, mapper.KeyValue, "true"), mapper.Done(req)}
}

func (r *nreplRouter) snapshotLoad(ctx context.Context, req wire.Message) []wire.Message {
	ctx, err := withSession(ctx, req)
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	variable, err := r.devrepl.SnapshotLoad(ctx, req[mapper.KeyName], req[mapper.KeyVar])
	if err != nil {
		var nf *errors.SnapshotNotFoundError
		if errors.As(err, &nf) {
			return []wire.Message{
				mapper.Reply(req, mapper.KeyValue, "Not found: "+nf.Name, mapper.KeyErr, err.Error()),
				mapper.Done(req),
			}
		}
		return mapper.ErrorToMessages(req, err)
	}
	return []wire.Message{mapper.Reply(req, mapper.KeyValue, "Loaded: "+variable), mapper.Done(req)}
}

// snapshotList reports one TSV row per entry whose name matches the optional name glob.
func (r *nreplRouter) snapshotList(ctx context.Context, req wire.Message) []wire.Message {
	entries, err := r.devrepl.SnapshotList(ctx, req[mapper.KeyName])
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	rows := make([]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.TSV())
	}
	return []wire.Message{mapper.Reply(req, mapper.KeyValue, strings.Join(rows, "\n")), mapper.Done(req)}
}

func (r *nreplRouter) snapshotDelete(ctx context.Context, req wire.Message) []wire.Message {
	if err := r.devrepl.SnapshotDelete(ctx, req[mapper.KeyName]); err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	return []wire.Message{mapper.Reply(req, mapper.KeyValue, "OK"), mapper.Done(req)}
}

func (r *nreplRouter) snapshotInfo(ctx context.Context, req wire.Message) []wire.Message {
	info, err := r.devrepl.SnapshotInfo(ctx, req[mapper.KeyName])
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	return []wire.Message{mapper.Reply(req, mapper.KeyValue, info), mapper.Done(req)}
}

func (r *nreplRouter) snapshotMaterialize(ctx context.Context, req wire.Message) []wire.Message {
	_, err := r.devrepl.SnapshotMaterialize(ctx, req[mapper.KeyName], req[mapper.KeyType], req[mapper.KeyTarget])
	if err != nil {
		return []wire.Message{
			mapper.Reply(req, mapper.KeyValue, "false", mapper.KeyErr, err.Error()),
			mapper.Done(req),
		}
	}
	return []wire.Message{mapper.Reply(req, mapper.KeyValue, "true"), mapper.Done(req)}
}
