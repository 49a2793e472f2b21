package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/middleware"
	"github.com/mgfere/kinoa-rolls/internal/model"
	"github.com/mgfere/kinoa-rolls/internal/realtime"
	"github.com/mgfere/kinoa-rolls/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RealtimeHandler hace el upgrade a websocket. La identidad de la conexion
// sale del JWT ya verificado por el middleware; ningun dato del cliente la
// altera. Cada sesion deja ademas una fila en conexiones para observabilidad.
type RealtimeHandler struct {
	hub        *realtime.Hub
	conexiones repository.ConexionRepository
}

func NewRealtimeHandler(hub *realtime.Hub, conexiones repository.ConexionRepository) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, conexiones: conexiones}
}

// Conectar godoc
// @Summary      Canal de eventos en tiempo real
// @Description  Upgrade a websocket. El token va por query string (?token=) o header Authorization.
// @Tags         realtime
// @Security     BearerAuth
// @Router       /v1/ws [get]
func (h *RealtimeHandler) Conectar(c *gin.Context) {
	usuarioID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
		return
	}

	sessionID := uuid.NewString()
	cliente, err := h.hub.Registrar(c.Writer, c.Request, usuarioID, sessionID)
	if err != nil {
		// el upgrader ya escribio la respuesta de error
		log.Warn().Err(err).Msg("fallo el upgrade a websocket")
		return
	}

	if err := h.conexiones.Create(c.Request.Context(), &model.Conexion{
		UsuarioID:       usuarioID,
		SessionID:       sessionID,
		Tipo:            "websocket",
		UltimaActividad: time.Now().UTC(),
	}); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("no se pudo registrar la conexion")
	}

	_ = cliente.Enviar("connected", map[string]any{"session_id": sessionID})

	// Mientras la sesion viva se refresca ultima_actividad para que el
	// sweeper no la confunda con una fila huerfana.
	touch := time.NewTicker(5 * time.Minute)
	defer touch.Stop()
	for vivo := true; vivo; {
		select {
		case <-cliente.Fin():
			vivo = false
		case <-touch.C:
			tctx, tcancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := h.conexiones.TouchActividad(tctx, sessionID); err != nil {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("no se pudo refrescar la actividad")
			}
			tcancel()
		}
	}

	// El request context ya murio junto con la conexion; el cleanup usa uno propio.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.conexiones.DeleteBySessionID(ctx, sessionID); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("no se pudo borrar la conexion")
	}
}
