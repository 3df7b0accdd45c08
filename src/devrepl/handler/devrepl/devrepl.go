// Package devrepl implements the inbound session protocol: it accepts connections from nreplfx
// and routes each request to the devrepl, hot-patch and discovery controllers.
package devrepl

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	tally "github.com/uber-go/tally/v4"
	controller "github.com/uber/devrepl/src/devrepl/controller/devrepl"
	"github.com/uber/devrepl/src/devrepl/controller/discovery"
	"github.com/uber/devrepl/src/devrepl/controller/hotpatch"
	"github.com/uber/devrepl/src/devrepl/factory"
	"github.com/uber/devrepl/src/devrepl/internal/nreplfx"
	"github.com/uber/devrepl/src/devrepl/mapper"
	"go.uber.org/zap"
)

// Handler accepts protocol connections and provides their routers.
type Handler = nreplfx.ConnectionManager

// New constructs a new Handler and registers it with the protocol module.
func New(
	ctrl controller.Controller,
	hotpatchCtrl hotpatch.Controller,
	discoveryCtrl discovery.Controller,
	nreplmod nreplfx.NREPLModule,
	logger *zap.SugaredLogger,
	stats tally.Scope,
) (Handler, error) {
	c := &connectionManager{
		devrepl:   ctrl,
		hotpatch:  hotpatchCtrl,
		discovery: discoveryCtrl,
		logger:    logger,
		stats:     stats.SubScope("nrepl"),
	}
	if err := nreplmod.RegisterConnectionManager(c); err != nil {
		return nil, err
	}
	return c, nil
}

type connectionManager struct {
	devrepl   controller.Controller
	hotpatch  hotpatch.Controller
	discovery discovery.Controller
	logger    *zap.SugaredLogger
	stats     tally.Scope
}

// NewConnection opens the default session of a new connection and returns a router that includes
// the connection's UUID.
func (c *connectionManager) NewConnection(ctx context.Context) (nreplfx.Router, error) {
	id := factory.UUID()
	if _, err := c.devrepl.InitConnection(ctx, id); err != nil {
		return nil, fmt.Errorf("error while creating new connection: %w", err)
	}

	return &nreplRouter{
		devrepl:   c.devrepl,
		hotpatch:  c.hotpatch,
		discovery: c.discovery,
		uuid:      id,
		logger:    c.logger,
		stats:     c.stats,
	}, nil
}

// RemoveConnection closes every session owned by a closed connection.
func (c *connectionManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	ctx = mapper.ContextWithConnection(ctx, id)
	if err := c.devrepl.EndConnection(ctx, id); err != nil {
		c.logger.Warnw("closing sessions of connection", "connection", id, zap.Error(err))
	}
}
