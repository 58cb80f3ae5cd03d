package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/matheus3301/bcast/internal/contacts"
	"github.com/matheus3301/bcast/internal/store"
)

// GetBroadcast returns the controller snapshot.
func (h *Handler) GetBroadcast(c *gin.Context) {
	c.JSON(http.StatusOK, h.broadcast.Snapshot())
}

type messageRequest struct {
	Message string `json:"message"`
}

// SetMessage replaces the composer text.
func (h *Handler) SetMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.broadcast.SetMessage(req.Message)
	c.JSON(http.StatusOK, h.broadcast.Snapshot())
}

// ClearMessage empties the composer and the template selection.
func (h *Handler) ClearMessage(c *gin.Context) {
	h.broadcast.ClearMessage()
	c.JSON(http.StatusOK, h.broadcast.Snapshot())
}

// Prepare arms the broadcast.
func (h *Handler) Prepare(c *gin.Context) {
	summary, err := h.broadcast.Prepare()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Send delivers the prepared broadcast. The request context bounds the
// send, so a client that disconnects cancels it.
func (h *Handler) Send(c *gin.Context) {
	result, err := h.broadcast.Send(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Cancel aborts an in-flight send.
func (h *Handler) Cancel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cancelled": h.broadcast.Cancel()})
}

// Reset drops a prepared broadcast.
func (h *Handler) Reset(c *gin.Context) {
	if err := h.broadcast.Reset(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.broadcast.Snapshot())
}

// History lists recent broadcasts. ?limit= caps the result.
func (h *Handler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusOK, []store.Broadcast{})
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		limit = n
	}
	list, err := h.history.ListBroadcasts(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type statsResponse struct {
	Contacts   contacts.Stats       `json:"contacts"`
	Broadcasts store.BroadcastStats `json:"broadcasts"`
	State      string               `json:"state"`
}

// Stats combines contact counters and history counters.
func (h *Handler) Stats(c *gin.Context) {
	resp := statsResponse{
		Contacts: h.contacts.Stats(),
		State:    string(h.broadcast.State()),
	}
	if h.history != nil {
		st, err := h.history.BroadcastStats(c.Request.Context())
		if err != nil {
			h.fail(c, err)
			return
		}
		resp.Broadcasts = st
	}
	c.JSON(http.StatusOK, resp)
}
