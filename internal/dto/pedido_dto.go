package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ItemPedidoRequest is one cart line. Zero-quantity lines are filtered out by
// the service; the unit price is always re-derived from the catalog, never
// taken from the client.
type ItemPedidoRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"min=0"`
	Nota       string `json:"nota"        validate:"max=255"`
}

// CrearPedidoRequest carries the cart plus delivery/contact data. The contact
// fields also refresh the customer's profile.
type CrearPedidoRequest struct {
	Items      []ItemPedidoRequest `json:"items"       validate:"required,min=1,dive"`
	Nombre     string              `json:"nombre"      validate:"required,max=200"`
	Telefono   string              `json:"telefono"    validate:"required,min=7,max=20"`
	Colonia    string              `json:"colonia"     validate:"required"`
	Calle      string              `json:"calle"       validate:"required"`
	NoExterior string              `json:"no_exterior" validate:"required"`
	Notas      string              `json:"notas"       validate:"max=500"`
}

type CambiarEstadoRequest struct {
	Estado string `json:"estado" validate:"required"`
}

// ─── Filter / List ───────────────────────────────────────────────────────────

// PedidoFilter is bound from the query string of GET /v1/admin/pedidos.
type PedidoFilter struct {
	Estado string `form:"estado"` // closed enum value or "all" (default all)
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DetallePedidoResponse struct {
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type PedidoResponse struct {
	ID           string                  `json:"id"`
	CodigoPedido string                  `json:"codigo_pedido"`
	Cliente      string                  `json:"cliente,omitempty"`
	Total        decimal.Decimal         `json:"total"`
	Estado       string                  `json:"estado"`
	Notas        string                  `json:"notas"`
	Detalles     []DetallePedidoResponse `json:"detalles"`
	CreatedAt    string                  `json:"fecha_creacion"`
}

type PedidoListResponse struct {
	Data  []PedidoResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// DashboardResponse backs the admin dashboard cards.
type DashboardResponse struct {
	TotalPedidos      int64 `json:"total_pedidos"`
	PedidosHoy        int64 `json:"pedidos_hoy"`
	PedidosPendientes int64 `json:"pedidos_pendientes"`
	TotalUsuarios     int64 `json:"total_usuarios"`
	TotalProductos    int64 `json:"total_productos"`
}
