package service

import (
	"context"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/model"
	"github.com/mgfere/kinoa-rolls/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Pusher empuja eventos en tiempo real a los websockets conectados. Lo
// implementa realtime.Hub; los tests lo sustituyen por un stub.
type Pusher interface {
	Broadcast(event string, data any) error
	SendToUser(usuarioID uuid.UUID, event string, data any) error
}

// NotificacionService persiste notificaciones y las empuja en tiempo real.
// La fila es la fuente de verdad y se crea dentro de la transaccion del
// pedido; el push por websocket es un extra de mejor esfuerzo que nunca
// afecta la operacion que lo origino.
type NotificacionService interface {
	CrearTx(tx *gorm.DB, n *model.Notificacion) error
	PushNuevoPedido(pedido *model.Pedido)
	PushCambioEstado(pedido *model.Pedido)
	Listar(ctx context.Context, usuarioID uuid.UUID) (*dto.NotificacionListResponse, error)
	MarcarLeida(ctx context.Context, usuarioID, notificacionID uuid.UUID) error
}

type notificacionService struct {
	repo   repository.NotificacionRepository
	pusher Pusher
}

func NewNotificacionService(repo repository.NotificacionRepository, pusher Pusher) NotificacionService {
	return &notificacionService{repo: repo, pusher: pusher}
}

// CrearTx inserta la notificacion dentro de la transaccion del llamador,
// de modo que pedido y notificacion se confirman o revierten juntos.
func (s *notificacionService) CrearTx(tx *gorm.DB, n *model.Notificacion) error {
	return s.repo.CreateTx(tx, n)
}

// PushNuevoPedido difunde el evento new_order a todos los conectados.
// Se llama despues del commit; un fallo solo se registra en el log.
func (s *notificacionService) PushNuevoPedido(pedido *model.Pedido) {
	if s.pusher == nil {
		return
	}
	err := s.pusher.Broadcast("new_order", map[string]any{
		"id_pedido":      pedido.ID.String(),
		"codigo_pedido":  pedido.CodigoPedido,
		"total":          pedido.Total,
		"fecha_creacion": pedido.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Warn().Err(err).Str("codigo", pedido.CodigoPedido).Msg("fallo el push de new_order")
	}
}

// PushCambioEstado avisa al dueño del pedido que su estado cambio. Si el
// usuario no tiene sesiones abiertas no pasa nada; la notificacion durable
// ya quedo guardada.
func (s *notificacionService) PushCambioEstado(pedido *model.Pedido) {
	if s.pusher == nil {
		return
	}
	err := s.pusher.SendToUser(pedido.UsuarioID, "order_update", map[string]any{
		"id_pedido":     pedido.ID.String(),
		"codigo_pedido": pedido.CodigoPedido,
		"nuevo_estado":  string(pedido.Estado),
	})
	if err != nil {
		log.Warn().Err(err).Str("codigo", pedido.CodigoPedido).Msg("fallo el push de order_update")
	}
}

func (s *notificacionService) Listar(ctx context.Context, usuarioID uuid.UUID) (*dto.NotificacionListResponse, error) {
	notis, err := s.repo.ListByUsuario(ctx, usuarioID, 50)
	if err != nil {
		return nil, apierror.Storage("no se pudieron listar las notificaciones")
	}
	noLeidas, err := s.repo.CountNoLeidas(ctx, usuarioID)
	if err != nil {
		return nil, apierror.Storage("no se pudieron contar las notificaciones")
	}

	resp := &dto.NotificacionListResponse{
		Data:     make([]dto.NotificacionResponse, len(notis)),
		NoLeidas: noLeidas,
	}
	for i, n := range notis {
		item := dto.NotificacionResponse{
			ID:        n.ID.String(),
			Tipo:      n.Tipo,
			Titulo:    n.Titulo,
			Mensaje:   n.Mensaje,
			Leida:     n.Leida,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
		}
		if n.PedidoID != nil {
			pid := n.PedidoID.String()
			item.PedidoID = &pid
		}
		resp.Data[i] = item
	}
	return resp, nil
}

// MarcarLeida exige que la notificacion pertenezca al usuario autenticado.
func (s *notificacionService) MarcarLeida(ctx context.Context, usuarioID, notificacionID uuid.UUID) error {
	n, err := s.repo.FindByID(ctx, notificacionID)
	if err != nil {
		return apierror.NotFound("notificacion no encontrada")
	}
	if n.UsuarioID != usuarioID {
		return apierror.Forbidden("la notificacion no te pertenece")
	}
	return s.repo.MarcarLeida(ctx, notificacionID)
}
