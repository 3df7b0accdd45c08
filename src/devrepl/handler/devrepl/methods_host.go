package devrepl

import (
	"context"
	"strings"

	"github.com/uber/devrepl/src/devrepl/internal/wire"
	"github.com/uber/devrepl/src/devrepl/mapper"
)

func (r *nreplRouter) hotPatch(ctx context.Context, req wire.Message) []wire.Message {
	res := r.hotpatch.HotPatch(ctx, req[mapper.KeyCode])
	r.logger.Infow("hot-patch handled", "id", req[mapper.KeyID], "success", res.Success, "types", res.Updated)
	return mapper.HotPatchResultToMessages(req, res)
}

// bindContext runs the discovery chain, or binds the value of expr when one is given.
func (r *nreplRouter) bindContext(ctx context.Context, req wire.Message) []wire.Message {
	expr := strings.TrimSpace(req[mapper.KeyExpr])
	if expr == "" {
		return mapper.BindResultToMessages(req, r.discovery.TryBindOnce(ctx))
	}
	return mapper.BindResultToMessages(req, r.discovery.BindExpression(ctx, expr))
}
