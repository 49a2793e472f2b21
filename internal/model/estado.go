package model

import "fmt"

// EstadoPedido is the closed order-lifecycle enum. Free-text states are not
// accepted anywhere; every change goes through the transition table below.
type EstadoPedido string

const (
	EstadoPendiente     EstadoPedido = "pendiente"
	EstadoEnPreparacion EstadoPedido = "en_preparacion"
	EstadoListo         EstadoPedido = "listo"
	EstadoEntregado     EstadoPedido = "entregado"
	EstadoCancelado     EstadoPedido = "cancelado"
)

// transiciones maps each state to the states reachable from it. The flow only
// moves forward, but the admin may skip stages (pendiente → listo is valid:
// not every kitchen marks en_preparacion). entregado and cancelado are
// terminal; cancelado is reachable from every non-terminal state.
var transiciones = map[EstadoPedido][]EstadoPedido{
	EstadoPendiente:     {EstadoEnPreparacion, EstadoListo, EstadoEntregado, EstadoCancelado},
	EstadoEnPreparacion: {EstadoListo, EstadoEntregado, EstadoCancelado},
	EstadoListo:         {EstadoEntregado, EstadoCancelado},
	EstadoEntregado:     {},
	EstadoCancelado:     {},
}

// ParseEstado validates a raw status string against the closed enum.
func ParseEstado(s string) (EstadoPedido, error) {
	e := EstadoPedido(s)
	if _, ok := transiciones[e]; !ok {
		return "", fmt.Errorf("estado desconocido: %q", s)
	}
	return e, nil
}

// EsTerminal reports whether no further transitions are allowed.
func (e EstadoPedido) EsTerminal() bool {
	return len(transiciones[e]) == 0
}

// PuedeTransicionar reports whether destino is reachable from e in one step.
func (e EstadoPedido) PuedeTransicionar(destino EstadoPedido) bool {
	for _, t := range transiciones[e] {
		if t == destino {
			return true
		}
	}
	return false
}
