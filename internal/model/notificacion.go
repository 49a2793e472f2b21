package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification type tags.
const (
	NotificacionNuevoPedido  = "nuevo_pedido"
	NotificacionCambioEstado = "cambio_estado"
)

// Notificacion is the durable record of an event directed at a user. It is
// written in the same transaction as the state change that caused it, so a
// committed order mutation always has its matching row. The realtime push is
// only a hint — clients reconcile against this table.
type Notificacion struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID uuid.UUID  `gorm:"type:uuid;index;not null"`
	Tipo      string     `gorm:"type:varchar(20);not null"`
	Titulo    string     `gorm:"type:varchar(100);not null"`
	Mensaje   string     `gorm:"not null"`
	Leida     bool       `gorm:"not null;default:false"`
	PedidoID  *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time

	Pedido *Pedido `gorm:"foreignKey:PedidoID"`
}

func (Notificacion) TableName() string { return "notificaciones" }

// Conexion links a user to a live websocket session. Rows are best-effort
// bookkeeping for observability; the in-memory hub is the delivery authority.
// A background sweeper removes rows orphaned by process restarts.
type Conexion struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID       uuid.UUID `gorm:"type:uuid;index;not null"`
	SessionID       string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Tipo            string    `gorm:"type:varchar(20);not null"`
	UltimaActividad time.Time `gorm:"not null"`
}

func (Conexion) TableName() string { return "conexiones" }
