package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/shop/internal/service/client"
)

// ClientHandler обслуживает профили клиентов.
type ClientHandler struct {
	clients *client.Service
}

// NewClientHandler создаёт обработчик профилей.
func NewClientHandler(clients *client.Service) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// RegisterRoutes регистрирует маршруты профилей клиентов.
func (h *ClientHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/clients")
	{
		group.POST("", h.create)
		group.GET("", h.list)
		group.GET("/me", h.getOwn)
		group.GET("/:id", h.get)
		group.PATCH("/:id", h.update)
		group.DELETE("/:id", h.remove)
	}
}

type clientRequest struct {
	FullName string `json:"fullName"`
	Contact  string `json:"contact"`
	Address  string `json:"address"`
	Status   *bool  `json:"status"`
}

func (r clientRequest) toInput() client.Input {
	return client.Input{
		FullName: r.FullName,
		Contact:  r.Contact,
		Address:  r.Address,
		Status:   r.Status,
	}
}

func (h *ClientHandler) create(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	created, err := h.clients.Create(c.Request.Context(), principal, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toClientDTO(created))
}

func (h *ClientHandler) list(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}

	clients, err := h.clients.List(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}

	data := make([]clientDTO, 0, len(clients))
	for _, profile := range clients {
		data = append(data, toClientDTO(profile))
	}
	c.JSON(http.StatusOK, data)
}

func (h *ClientHandler) getOwn(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}

	profile, err := h.clients.GetOwn(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientDTO(profile))
}

func (h *ClientHandler) get(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.clients.Get(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientDTO(profile))
}

func (h *ClientHandler) update(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req clientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	updated, err := h.clients.Update(c.Request.Context(), principal, id, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientDTO(updated))
}

func (h *ClientHandler) remove(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.clients.Delete(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientDTO(deleted))
}
