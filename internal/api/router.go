package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matheus3301/bcast/internal/api/ws"
	"go.uber.org/zap"
)

// NewRouter wires the dashboard routes. hub may be nil, in which case
// /ws is not served.
func NewRouter(h *Handler, hub *ws.Hub, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), cors())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			hub.ServeWs(c.Writer, c.Request)
		})
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/contacts", h.ListContacts)
		apiGroup.POST("/contacts", h.AddContact)
		apiGroup.POST("/contacts/reload", h.ReloadContacts)
		apiGroup.POST("/contacts/select-all", h.SelectAll)
		apiGroup.POST("/contacts/select-online", h.SelectOnline)
		apiGroup.GET("/contacts/selected", h.SelectedContacts)
		apiGroup.GET("/contacts/export", h.ExportContacts)
		apiGroup.POST("/contacts/:id/select", h.SelectContact)

		apiGroup.GET("/templates", h.ListTemplates)
		apiGroup.POST("/templates", h.CreateTemplate)
		apiGroup.POST("/templates/:key/use", h.UseTemplate)
		apiGroup.PUT("/templates/link", h.SetLink)
		apiGroup.GET("/templates/link.png", h.LinkQR)

		apiGroup.GET("/broadcast", h.GetBroadcast)
		apiGroup.PUT("/broadcast/message", h.SetMessage)
		apiGroup.DELETE("/broadcast/message", h.ClearMessage)
		apiGroup.POST("/broadcast/prepare", h.Prepare)
		apiGroup.POST("/broadcast/send", h.Send)
		apiGroup.POST("/broadcast/cancel", h.Cancel)
		apiGroup.POST("/broadcast/reset", h.Reset)
		apiGroup.GET("/broadcast/history", h.History)

		apiGroup.GET("/stats", h.Stats)
	}
	return r
}
