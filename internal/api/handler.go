package api

import (
	"context"

	"github.com/matheus3301/bcast/internal/broadcast"
	"github.com/matheus3301/bcast/internal/contacts"
	"github.com/matheus3301/bcast/internal/store"
	"github.com/matheus3301/bcast/internal/templates"
	"go.uber.org/zap"
)

// History is the read side of the broadcast history.
type History interface {
	ListBroadcasts(ctx context.Context, limit int) ([]store.Broadcast, error)
	BroadcastStats(ctx context.Context) (store.BroadcastStats, error)
}

// Handler serves the dashboard API over the stores and the controller.
type Handler struct {
	contacts  *contacts.Store
	templates *templates.Store
	broadcast *broadcast.Controller
	history   History
	logger    *zap.Logger
}

// NewHandler creates the API handler. history may be nil.
func NewHandler(cs *contacts.Store, ts *templates.Store, ctrl *broadcast.Controller, history History, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		contacts:  cs,
		templates: ts,
		broadcast: ctrl,
		history:   history,
		logger:    logger,
	}
}
