package dto

import "github.com/shopspring/decimal"

type CrearProductoRequest struct {
	Nombre      string          `json:"nombre"      validate:"required,max=100"`
	Descripcion string          `json:"descripcion" validate:"required"`
	Precio      decimal.Decimal `json:"precio"      validate:"required,gt=0"`
	// TiempoPreparacion in minutes.
	TiempoPreparacion int `json:"tiempo_preparacion" validate:"required,gt=0"`
}

type ActualizarProductoRequest struct {
	Nombre            string          `json:"nombre"             validate:"required,max=100"`
	Descripcion       string          `json:"descripcion"        validate:"required"`
	Precio            decimal.Decimal `json:"precio"             validate:"required,gt=0"`
	TiempoPreparacion int             `json:"tiempo_preparacion" validate:"required,gt=0"`
}

type ProductoResponse struct {
	ID                string          `json:"id"`
	Nombre            string          `json:"nombre"`
	Descripcion       string          `json:"descripcion"`
	Precio            decimal.Decimal `json:"precio"`
	Disponible        bool            `json:"disponible"`
	TiempoPreparacion int             `json:"tiempo_preparacion"`
	TieneImagen       bool            `json:"tiene_imagen"`
}

// ProductoFilter is bound from the query string of admin product listings.
type ProductoFilter struct {
	Disponible string `form:"disponible"` // "true" | "false" | "all" (default all)
	Nombre     string `form:"nombre"`
}
