package handlers

import (
	"github.com/gin-gonic/gin"

	"studentrecords/internal/domain/record"
	"studentrecords/internal/infrastructure/http/v1/dto"
)

// RecordHandler exposes the record service.
type RecordHandler struct {
	*BaseHandler
	service *record.Service
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler(base *BaseHandler, service *record.Service) *RecordHandler {
	return &RecordHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /records
func (h *RecordHandler) List(c *gin.Context) {
	recs, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(dto.FromRecords(recs)))
}

// Create handles POST /records
func (h *RecordHandler) Create(c *gin.Context) {
	var req dto.CreateRecordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.Add(c.Request.Context(), req.ToFields())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromRecord(rec))
}

// Get handles GET /records/:id
func (h *RecordHandler) Get(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	rec, err := h.service.Get(c.Request.Context(), recordID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRecord(rec))
}

// Replace handles PUT /records/:id
func (h *RecordHandler) Replace(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateRecordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.Update(c.Request.Context(), recordID, req.ToFields().Replace())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRecord(rec))
}

// Patch handles PATCH /records/:id
func (h *RecordHandler) Patch(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.PatchRecordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.service.Update(c.Request.Context(), recordID, req.ToChanges())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRecord(rec))
}

// Delete handles DELETE /records/:id
func (h *RecordHandler) Delete(c *gin.Context) {
	recordID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), recordID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
