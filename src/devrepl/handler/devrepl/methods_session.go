package devrepl

import (
	"context"
	"strings"

	"github.com/uber/devrepl/src/devrepl/internal/wire"
	"github.com/uber/devrepl/src/devrepl/mapper"
)

func (r *nreplRouter) clone(ctx context.Context, req wire.Message) []wire.Message {
	s, err := r.devrepl.Clone(ctx)
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	return []wire.Message{
		mapper.Reply(req, mapper.KeyNewSession, s.UUID.String()),
		mapper.Done(req),
	}
}

func (r *nreplRouter) close(ctx context.Context, req wire.Message) []wire.Message {
	ctx, err := withSession(ctx, req)
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	if err := r.devrepl.Close(ctx); err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	return []wire.Message{mapper.Reply(req, mapper.KeyValue, "true"), mapper.Done(req)}
}

func (r *nreplRouter) resetSession(ctx context.Context, req wire.Message) []wire.Message {
	ctx, err := withSession(ctx, req)
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	imports, err := r.devrepl.Reset(ctx)
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	return []wire.Message{
		mapper.Reply(req, mapper.KeyValue, "true", mapper.KeyImports, mapper.ImportsToWire(imports)),
		mapper.Done(req),
	}
}

func (r *nreplRouter) eval(ctx context.Context, req wire.Message) []wire.Message {
	ctx, err := withSession(ctx, req)
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	res, err := r.devrepl.Eval(ctx, req[mapper.KeyCode])
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	return mapper.EvalResultToMessages(req, res)
}

func (r *nreplRouter) importsGet(ctx context.Context, req wire.Message) []wire.Message {
	ctx, err := withSession(ctx, req)
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	imports, err := r.devrepl.Imports(ctx)
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	return []wire.Message{mapper.Reply(req, mapper.KeyImports, mapper.ImportsToWire(imports)), mapper.Done(req)}
}

func (r *nreplRouter) importsAdd(ctx context.Context, req wire.Message) []wire.Message {
	ctx, err := withSession(ctx, req)
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	imports, diags, err := r.devrepl.AddImports(ctx, mapper.WireToImports(req[mapper.KeyImports]))
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}

	msg := mapper.Reply(req, mapper.KeyImports, mapper.ImportsToWire(imports))
	if len(diags) > 0 {
		msg[mapper.KeyErr] = strings.Join(diags, "\n")
	}
	return []wire.Message{msg, mapper.Done(req)}
}

func (r *nreplRouter) listBindings(ctx context.Context, req wire.Message) []wire.Message {
	bindings, err := r.devrepl.ListBindings(ctx)
	if err != nil {
		return mapper.ErrorToMessages(req, err)
	}
	return []wire.Message{mapper.Reply(req, mapper.KeyValue, strings.Join(bindings, "\n")), mapper.Done(req)}
}
