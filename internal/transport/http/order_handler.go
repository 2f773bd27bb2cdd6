package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
)

const dateLayout = "2006-01-02"

// OrderHandler обслуживает корзину и заказы.
type OrderHandler struct {
	engine *order.Engine
}

// NewOrderHandler создаёт обработчик заказов.
func NewOrderHandler(engine *order.Engine) *OrderHandler {
	return &OrderHandler{engine: engine}
}

// RegisterRoutes регистрирует маршруты корзины и заказов.
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/order")
	{
		group.POST("", h.create)
		group.GET("", h.list)
		group.GET("/cart", h.getCart)
		group.POST("/cart", h.addToCart)
		group.POST("/cart/checkout", h.checkout)
		group.DELETE("/cart/:productId", h.removeFromCart)
		group.GET("/:id", h.get)
		group.PATCH("/:id", h.updateStatus)
		group.DELETE("/:id", h.remove)
		group.GET("/:id/history", h.history)
	}
}

type orderItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int32 `json:"quantity" binding:"required"`
}

type orderRequest struct {
	Items []orderItemRequest `json:"items" binding:"required"`
}

func (r orderRequest) toItems() []order.ItemRequest {
	items := make([]order.ItemRequest, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, order.ItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return items
}

func (h *OrderHandler) create(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}

	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	created, err := h.engine.Create(c.Request.Context(), principal, req.toItems())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderDTO(created))
}

func (h *OrderHandler) list(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}

	filter, ok := parseListFilter(c)
	if !ok {
		return
	}

	page, err := h.engine.FindAll(c.Request.Context(), principal, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderPageDTO(page))
}

func (h *OrderHandler) getCart(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}

	cart, err := h.engine.GetCart(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(cart))
}

func (h *OrderHandler) addToCart(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}

	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	cart, err := h.engine.AddToCart(c.Request.Context(), principal, req.toItems())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(cart))
}

func (h *OrderHandler) checkout(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}

	placed, err := h.engine.Checkout(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(placed))
}

type removalResponse struct {
	Cart    *orderDTO `json:"cart,omitempty"`
	Deleted bool      `json:"deleted"`
	Message string    `json:"message,omitempty"`
}

func (h *OrderHandler) removeFromCart(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}
	productID, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}
	quantity, ok := parseQuantityQuery(c)
	if !ok {
		return
	}

	result, err := h.engine.RemoveFromCart(c.Request.Context(), principal, productID, quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := removalResponse{Deleted: result.Deleted, Message: result.Message}
	if result.Cart != nil {
		dto := toOrderDTO(*result.Cart)
		resp.Cart = &dto
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) get(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	found, err := h.engine.FindOne(c.Request.Context(), &principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(found))
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *OrderHandler) updateStatus(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	updated, err := h.engine.UpdateStatus(c.Request.Context(), principal, id, domain.OrderStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(updated))
}

func (h *OrderHandler) remove(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	deleted, err := h.engine.Remove(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(deleted))
}

func (h *OrderHandler) history(c *gin.Context) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		respondBadRequest(c, "missing principal")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	events, err := h.engine.History(c.Request.Context(), &principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimelineDTOs(events))
}

// parseListFilter разбирает query-параметры списка заказов.
func parseListFilter(c *gin.Context) (order.ListFilter, bool) {
	filter := order.ListFilter{Page: parsePage(c)}

	if raw := c.Query("status"); raw != "" {
		status := domain.OrderStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("startDate"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			respondBadRequest(c, "invalid startDate, expected YYYY-MM-DD")
			return order.ListFilter{}, false
		}
		filter.StartDate = &parsed
	}
	if raw := c.Query("endDate"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			respondBadRequest(c, "invalid endDate, expected YYYY-MM-DD")
			return order.ListFilter{}, false
		}
		filter.EndDate = &parsed
	}
	return filter, true
}

func parseQuantityQuery(c *gin.Context) (int32, bool) {
	raw := c.DefaultQuery("quantity", "1")
	quantity, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || quantity <= 0 {
		respondBadRequest(c, "invalid quantity parameter")
		return 0, false
	}
	return int32(quantity), true
}
