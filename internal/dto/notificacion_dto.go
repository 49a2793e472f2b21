package dto

type NotificacionResponse struct {
	ID        string  `json:"id"`
	Tipo      string  `json:"tipo"`
	Titulo    string  `json:"titulo"`
	Mensaje   string  `json:"mensaje"`
	Leida     bool    `json:"leida"`
	PedidoID  *string `json:"id_pedido,omitempty"`
	CreatedAt string  `json:"fecha_creacion"`
}

type NotificacionListResponse struct {
	Data     []NotificacionResponse `json:"data"`
	NoLeidas int64                  `json:"no_leidas"`
}
