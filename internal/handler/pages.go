package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/chamados-service/internal/model"
	"github.com/psds-microservice/chamados-service/internal/workflow"
)

var (
	priorityOptions = []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow}
	statusOptions   = []model.TicketStatus{model.TicketStatusOpen, model.TicketStatusViewed, model.TicketStatusConcluded}
)

var roleTitles = map[model.Role]string{
	model.RoleManager:   "Gerente",
	model.RoleInspector: "Fiscal",
	model.RoleAdmin:     "Administrador",
}

// ListPath returns the ticket list page of role.
func ListPath(role model.Role) string {
	switch role {
	case model.RoleManager:
		return "/gerente/listar-chamados"
	case model.RoleInspector:
		return "/fiscal/listar-chamados"
	case model.RoleAdmin:
		return "/admin/listar-chamados"
	}
	return "/login-page"
}

// PageHandler renders the HTML views of each role.
type PageHandler struct {
	engine *workflow.Engine
}

func NewPageHandler(engine *workflow.Engine) *PageHandler {
	return &PageHandler{engine: engine}
}

type createTicketForm struct {
	StoreID     *int   `form:"loja_id" binding:"required"`
	Description string `form:"descricao" binding:"required"`
	Priority    string `form:"prioridade" binding:"required"`
	RequestedBy string `form:"solicitado_por" binding:"required"`
}

// Selected reports whether store id was picked in the submitted form.
func (f createTicketForm) Selected(id int) bool {
	return f.StoreID != nil && *f.StoreID == id
}

type editTicketForm struct {
	Description string `form:"descricao" binding:"required"`
	Priority    string `form:"prioridade" binding:"required"`
	Status      string `form:"status" binding:"required"`
}

func (h *PageHandler) page(c *gin.Context, status int, name string, data gin.H) {
	role := roleOf(c)
	data["Role"] = role
	data["RoleTitle"] = roleTitles[role]
	data["Username"] = subjectOf(c)
	data["ListPath"] = ListPath(role)
	c.HTML(status, name, data)
}

func (h *PageHandler) renderError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logServerError(c, err)
	}
	h.page(c, status, "error.html", gin.H{
		"Title":  "Erro",
		"Error":  messageOf(err, status),
		"Status": status,
	})
}

func pageID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func (h *PageHandler) Dashboard(c *gin.Context) {
	h.page(c, http.StatusOK, "dashboard.html", gin.H{"Title": "Painel"})
}

func (h *PageHandler) renderList(c *gin.Context, status int, message string) {
	items, err := h.engine.List(c.Request.Context(), roleOf(c))
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.page(c, status, "chamado_list.html", gin.H{
		"Title":    "Chamados",
		"Chamados": items,
		"Mensagem": message,
	})
}

func (h *PageHandler) List(c *gin.Context) {
	h.renderList(c, http.StatusOK, "")
}

func (h *PageHandler) NewTicketForm(c *gin.Context) {
	h.page(c, http.StatusOK, "chamado_form.html", gin.H{
		"Title":      "Abrir chamado",
		"Lojas":      h.engine.Stores(),
		"Priorities": priorityOptions,
		"Form":       createTicketForm{},
	})
}

func (h *PageHandler) CreateTicket(c *gin.Context) {
	var form createTicketForm
	if err := c.ShouldBind(&form); err == nil {
		_, err := h.engine.Create(c.Request.Context(), roleOf(c), workflow.CreateInput{
			StoreID:     *form.StoreID,
			Description: form.Description,
			Priority:    form.Priority,
			RequestedBy: form.RequestedBy,
		})
		if err == nil {
			c.Redirect(http.StatusFound, ListPath(roleOf(c)))
			return
		}
		if statusOf(err) != http.StatusBadRequest {
			h.renderError(c, err)
			return
		}
	}
	h.page(c, http.StatusBadRequest, "chamado_form.html", gin.H{
		"Title":      "Abrir chamado",
		"Lojas":      h.engine.Stores(),
		"Priorities": priorityOptions,
		"Error":      "Preencha loja, descrição, prioridade e solicitante.",
		"Form":       form,
	})
}

type ticketAction func(ctx context.Context, role model.Role, id uint64) (*workflow.Result, error)

// transition runs a status action from a list page. Inspectors get the list
// re-rendered with a message; other roles are redirected back to their list.
func (h *PageHandler) transition(c *gin.Context, act ticketAction) {
	id, ok := pageID(c)
	if !ok {
		h.badID(c)
		return
	}
	res, err := act(c.Request.Context(), roleOf(c), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	if roleOf(c) == model.RoleInspector {
		h.renderList(c, http.StatusOK, fmt.Sprintf("Chamado #%d: %s", id, res.Message))
		return
	}
	c.Redirect(http.StatusFound, ListPath(roleOf(c)))
}

func (h *PageHandler) Conclude(c *gin.Context)   { h.transition(c, h.engine.Conclude) }
func (h *PageHandler) MarkViewed(c *gin.Context) { h.transition(c, h.engine.MarkViewed) }
func (h *PageHandler) Delete(c *gin.Context)     { h.transition(c, h.engine.Delete) }

func (h *PageHandler) badID(c *gin.Context) {
	h.page(c, http.StatusBadRequest, "error.html", gin.H{"Title": "Erro", "Error": "Identificador inválido", "Status": http.StatusBadRequest})
}

func (h *PageHandler) EditForm(c *gin.Context) {
	id, ok := pageID(c)
	if !ok {
		h.badID(c)
		return
	}
	t, err := h.engine.Get(c.Request.Context(), roleOf(c), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.page(c, http.StatusOK, "admin_edit.html", gin.H{
		"Title":      fmt.Sprintf("Editar chamado #%d", id),
		"Chamado":    t,
		"Priorities": priorityOptions,
		"Statuses":   statusOptions,
	})
}

func (h *PageHandler) Edit(c *gin.Context) {
	id, ok := pageID(c)
	if !ok {
		h.badID(c)
		return
	}
	var form editTicketForm
	if err := c.ShouldBind(&form); err != nil {
		h.page(c, http.StatusBadRequest, "error.html", gin.H{"Title": "Erro", "Error": "Preencha descrição, prioridade e status.", "Status": http.StatusBadRequest})
		return
	}
	_, err := h.engine.Edit(c.Request.Context(), roleOf(c), id, workflow.EditInput{
		Description: form.Description,
		Priority:    form.Priority,
		Status:      form.Status,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusFound, ListPath(roleOf(c)))
}
