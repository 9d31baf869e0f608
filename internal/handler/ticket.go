package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/chamados-service/internal/model"
	"github.com/psds-microservice/chamados-service/internal/workflow"
)

type TicketHandler struct {
	engine *workflow.Engine
}

func NewTicketHandler(engine *workflow.Engine) *TicketHandler {
	return &TicketHandler{engine: engine}
}

type createTicketRequest struct {
	StoreID     *int   `json:"loja_id" binding:"required"`
	Description string `json:"descricao" binding:"required"`
	Priority    string `json:"prioridade" binding:"required"`
	RequestedBy string `json:"solicitado_por" binding:"required"`
}

type editTicketRequest struct {
	Description string `json:"descricao" binding:"required"`
	Priority    string `json:"prioridade" binding:"required"`
	Status      string `json:"status" binding:"required"`
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	res, err := h.engine.Create(c.Request.Context(), roleOf(c), workflow.CreateInput{
		StoreID:     *req.StoreID,
		Description: req.Description,
		Priority:    req.Priority,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// List serves the listing of view.
func (h *TicketHandler) List(view model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := h.engine.ListFor(c.Request.Context(), roleOf(c), view)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"chamados": items})
	}
}

func (h *TicketHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	t, err := h.engine.Get(c.Request.Context(), roleOf(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chamado": t})
}

func (h *TicketHandler) Conclude(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := h.engine.Conclude(c.Request.Context(), roleOf(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *TicketHandler) MarkViewed(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := h.engine.MarkViewed(c.Request.Context(), roleOf(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *TicketHandler) Edit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req editTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	res, err := h.engine.Edit(c.Request.Context(), roleOf(c), id, workflow.EditInput{
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *TicketHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	res, err := h.engine.Delete(c.Request.Context(), roleOf(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
