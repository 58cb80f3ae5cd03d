package api

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/matheus3301/bcast/internal/contacts"
)

type contactsResponse struct {
	contacts.Page
	Search string          `json:"search"`
	Status contacts.Status `json:"status"`
	Stats  contacts.Stats  `json:"stats"`
}

// ListContacts returns one page of the contacts matching search/status.
// The store's own filter is not touched.
func (h *Handler) ListContacts(c *gin.Context) {
	status, err := contacts.ParseStatus(c.Query("status"))
	if err != nil {
		badRequest(c, err)
		return
	}
	page := 1
	if raw := c.Query("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			badRequest(c, err)
			return
		}
	}

	search := c.Query("search")
	p, stats := h.contacts.Query(search, status, page)
	c.JSON(http.StatusOK, contactsResponse{
		Page:   p,
		Search: search,
		Status: status,
		Stats:  stats,
	})
}

// ReloadContacts refetches the directory.
func (h *Handler) ReloadContacts(c *gin.Context) {
	if err := h.contacts.Load(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.contacts.Stats())
}

type addContactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// AddContact registers a contact with the directory.
func (h *Handler) AddContact(c *gin.Context) {
	var req addContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.contacts.AddContact(c.Request.Context(), req.Name, req.Phone); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.contacts.Stats())
}

type selectRequest struct {
	Selected bool `json:"selected"`
}

// SelectContact sets the selection of one contact.
func (h *Handler) SelectContact(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !h.contacts.ToggleSelection(c.Param("id"), req.Selected) {
		c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
		return
	}
	c.JSON(http.StatusOK, h.contacts.Stats())
}

// SelectAll sets the selection of every contact.
func (h *Handler) SelectAll(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.contacts.SelectAll(req.Selected)
	c.JSON(http.StatusOK, h.contacts.Stats())
}

// SelectOnline keeps only online contacts selected.
func (h *Handler) SelectOnline(c *gin.Context) {
	h.contacts.SelectOnlineOnly()
	c.JSON(http.StatusOK, h.contacts.Stats())
}

// SelectedContacts lists the current recipients.
func (h *Handler) SelectedContacts(c *gin.Context) {
	c.JSON(http.StatusOK, h.contacts.SelectedContacts())
}

// ExportContacts streams the contact list as CSV. ?selected=true limits
// it to the current recipients.
func (h *Handler) ExportContacts(c *gin.Context) {
	list := h.contacts.Contacts()
	if c.Query("selected") == "true" {
		list = h.contacts.SelectedContacts()
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=contacts.csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"ID", "Name", "Phone", "Status", "Source", "Selected"})
	for _, ct := range list {
		_ = w.Write([]string{
			ct.ID,
			ct.Name,
			ct.Phone,
			string(ct.Status),
			string(ct.Source),
			strconv.FormatBool(ct.Selected),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = c.Error(err)
	}
}
