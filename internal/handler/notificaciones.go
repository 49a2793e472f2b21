package handler

import (
	"net/http"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/middleware"
	"github.com/mgfere/kinoa-rolls/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type NotificacionesHandler struct{ svc service.NotificacionService }

func NewNotificacionesHandler(svc service.NotificacionService) *NotificacionesHandler {
	return &NotificacionesHandler{svc: svc}
}

// Listar devuelve las notificaciones del usuario autenticado, mas recientes
// primero, junto con el contador de no leidas.
func (h *NotificacionesHandler) Listar(c *gin.Context) {
	usuarioID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), usuarioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificacionesHandler) MarcarLeida(c *gin.Context) {
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
	if err := h.svc.MarcarLeida(c.Request.Context(), usuarioID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
