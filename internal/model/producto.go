package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a menu item. Availability is a soft flag — unavailable products
// stay on record so historical order lines keep resolving; the hard-delete
// endpoint exists for admins but is the exception, not the rule.
type Producto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"type:varchar(100);index;not null"`
	Descripcion *string
	Precio      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Imagen      []byte          `gorm:"type:bytea"`
	Disponible  bool            `gorm:"not null;default:true"`
	// TiempoPreparacion is the prep-time estimate in minutes.
	TiempoPreparacion int `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (Producto) TableName() string { return "productos" }
