package handler

import (
	"net/http"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/middleware"
	"github.com/mgfere/kinoa-rolls/internal/model"
	"github.com/mgfere/kinoa-rolls/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PedidosHandler struct{ svc service.PedidoService }

func NewPedidosHandler(svc service.PedidoService) *PedidosHandler {
	return &PedidosHandler{svc: svc}
}

// Crear godoc
// @Summary      Crear pedido
// @Description  Crea el pedido con precios del catálogo e IVA incluido, refresca el perfil de entrega y notifica a los administradores.
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearPedidoRequest true "Carrito y datos de entrega"
// @Success      201  {object} dto.PedidoResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/pedidos [post]
func (h *PedidosHandler) Crear(c *gin.Context) {
	usuarioID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return
	}
	var req dto.CrearPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// MisPedidos lista el historial del usuario autenticado.
func (h *PedidosHandler) MisPedidos(c *gin.Context) {
	usuarioID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return
	}
	resp, err := h.svc.ListarPorUsuario(c.Request.Context(), usuarioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener devuelve el detalle de un pedido. Los clientes solo ven los suyos.
func (h *PedidosHandler) Obtener(c *gin.Context) {
	usuarioID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	claims := middleware.GetClaims(c)
	esAdmin := claims != nil && claims.Rol == model.RolAdmin

	resp, err := h.svc.ObtenerPorID(c.Request.Context(), usuarioID, esAdmin, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Admin ───────────────────────────────────────────────────────────────────

// Listar godoc
// @Summary      Listar pedidos (admin)
// @Tags         pedidos
// @Produce      json
// @Security     BearerAuth
// @Param        estado query string false "pendiente | en_preparacion | listo | entregado | cancelado | all"
// @Param        page   query int    false "Página (default 1)"
// @Param        limit  query int    false "Registros por página (default 50)"
// @Success      200    {object} dto.PedidoListResponse
// @Router       /v1/admin/pedidos [get]
func (h *PedidosHandler) Listar(c *gin.Context) {
	var filter dto.PedidoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.ListarAdmin(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CambiarEstado godoc
// @Summary      Cambiar estado de un pedido (admin)
// @Description  Valida la transición contra el ciclo de vida cerrado y notifica al dueño del pedido.
// @Tags         pedidos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "UUID del pedido"
// @Param        body body dto.CambiarEstadoRequest true "Estado destino"
// @Success      200  {object} dto.PedidoResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/admin/pedidos/{id}/estado [patch]
func (h *PedidosHandler) CambiarEstado(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.CambiarEstadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CambiarEstado(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Dashboard entrega los contadores de la vista principal del admin.
func (h *PedidosHandler) Dashboard(c *gin.Context) {
	resp, err := h.svc.EstadisticasDashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
