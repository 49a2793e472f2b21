package handler

import (
	"io"
	"net/http"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/middleware"
	"github.com/mgfere/kinoa-rolls/internal/service"

	"github.com/gin-gonic/gin"
)

// maxFotoBytes limita el tamaño de la foto de perfil aceptada.
const maxFotoBytes = 2 << 20

type PerfilHandler struct{ svc service.PerfilService }

func NewPerfilHandler(svc service.PerfilService) *PerfilHandler { return &PerfilHandler{svc: svc} }

func (h *PerfilHandler) Obtener(c *gin.Context) {
	usuarioID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), usuarioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PerfilHandler) Actualizar(c *gin.Context) {
	usuarioID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return
	}
	var req dto.ActualizarPerfilRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubirFoto recibe la imagen cruda en el cuerpo de la peticion.
func (h *PerfilHandler) SubirFoto(c *gin.Context) {
	usuarioID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return
	}
	foto, err := io.ReadAll(io.LimitReader(c.Request.Body, maxFotoBytes+1))
	if err != nil || len(foto) == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("Imagen invalida"))
		return
	}
	if len(foto) > maxFotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, apierror.New("La imagen excede el tamaño permitido"))
		return
	}
	if err := h.svc.ActualizarFoto(c.Request.Context(), usuarioID, foto); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PerfilHandler) Foto(c *gin.Context) {
	usuarioID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return
	}
	foto, err := h.svc.ObtenerFoto(c.Request.Context(), usuarioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(foto), foto)
}
