package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/matheus3301/bcast/internal/templates"
	"github.com/skip2/go-qrcode"
)

type templatesResponse struct {
	Templates []templates.Template `json:"templates"`
	Active    string               `json:"active"`
	Link      string               `json:"link"`
}

// ListTemplates returns built-ins then custom templates.
func (h *Handler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, templatesResponse{
		Templates: h.templates.All(),
		Active:    h.templates.ActiveKey(),
		Link:      h.templates.Link(),
	})
}

type createTemplateRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Body     string `json:"body"`
}

// CreateTemplate stores a custom template.
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	key, err := h.templates.Create(req.Name, req.Category, req.Body)
	if err != nil {
		h.fail(c, err)
		return
	}
	tpl, _ := h.templates.Get(key)
	c.JSON(http.StatusCreated, tpl)
}

// UseTemplate selects a template and copies it into the composer.
func (h *Handler) UseTemplate(c *gin.Context) {
	if !h.broadcast.UseTemplate(c.Param("key")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	c.JSON(http.StatusOK, h.broadcast.Snapshot())
}

type linkRequest struct {
	Link string `json:"link"`
}

// SetLink changes the link interpolated into templates.
func (h *Handler) SetLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.templates.SetLink(req.Link)
	c.JSON(http.StatusOK, gin.H{"link": h.templates.Link()})
}

// LinkQR renders the configured link as a PNG QR code.
func (h *Handler) LinkQR(c *gin.Context) {
	link := h.templates.Link()
	if link == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no link configured"})
		return
	}
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
