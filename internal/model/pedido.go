package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pedido is a customer order. Created atomically with its Detalles in a single
// transaction; afterwards only the estado (and rarely notas) changes. Rows are
// never deleted in normal operation.
type Pedido struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	// CodigoPedido is the human-readable code (e.g. "A7492"). Uniqueness is
	// enforced by the DB constraint; the service retries on collision.
	CodigoPedido string          `gorm:"type:varchar(20);uniqueIndex;not null"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	Total        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Estado       EstadoPedido    `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Notas        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Usuario  *Usuario        `gorm:"foreignKey:UsuarioID"`
	Detalles []DetallePedido `gorm:"foreignKey:PedidoID"`
}

func (Pedido) TableName() string { return "pedidos" }

// DetallePedido is one product-quantity line within an order. PrecioUnitario
// is captured at order time on purpose: catalog price changes must not rewrite
// history. Lines are immutable once created.
type DetallePedido struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PedidoID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Nota           *string

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

func (DetallePedido) TableName() string { return "detalles_pedido" }

// Subtotal returns cantidad × precio_unitario.
func (d *DetallePedido) Subtotal() decimal.Decimal {
	return d.PrecioUnitario.Mul(decimal.NewFromInt(int64(d.Cantidad)))
}
