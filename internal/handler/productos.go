package handler

import (
	"io"
	"net/http"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxImagenBytes = 4 << 20

type ProductosHandler struct{ svc service.ProductoService }

func NewProductosHandler(svc service.ProductoService) *ProductosHandler {
	return &ProductosHandler{svc: svc}
}

// Menu godoc
// @Summary      Menú público
// @Description  Productos disponibles para ordenar. Servido desde cache con TTL corto.
// @Tags         productos
// @Produce      json
// @Success      200 {array} dto.ProductoResponse
// @Router       /v1/productos/menu [get]
func (h *ProductosHandler) Menu(c *gin.Context) {
	resp, err := h.svc.Menu(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Obtener(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Imagen sirve los bytes crudos de la imagen del producto.
func (h *ProductosHandler) Imagen(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	img, err := h.svc.ObtenerImagen(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(img), img)
}

// ── Admin ───────────────────────────────────────────────────────────────────

func (h *ProductosHandler) Listar(c *gin.Context) {
	var filter dto.ProductoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Crear(c *gin.Context) {
	var req dto.CrearProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductosHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) SubirImagen(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	img, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImagenBytes+1))
	if err != nil || len(img) == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("Imagen invalida"))
		return
	}
	if len(img) > maxImagenBytes {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New("La imagen excede el tamaño permitido"))
		return
	}
	if err := h.svc.ActualizarImagen(c.Request.Context(), id, img); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CambiarDisponibilidad prende o apaga el producto en el menu.
func (h *ProductosHandler) CambiarDisponibilidad(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req struct {
		Disponible *bool `json:"disponible" validate:"required"`
	}
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.CambiarDisponibilidad(c.Request.Context(), id, *req.Disponible); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductosHandler) Eliminar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
