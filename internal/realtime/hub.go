// Package realtime mantiene el registro de conexiones websocket activas y
// permite difundir eventos a todos los clientes o a las sesiones de un
// usuario concreto. La identidad de cada conexion se fija en el servidor al
// momento del upgrade; los clientes nunca declaran quienes son.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Evento es el sobre que viaja por el websocket.
type Evento struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub registra clientes conectados indexados por usuario. Todas las
// operaciones son seguras para uso concurrente.
type Hub struct {
	mu sync.RWMutex
	// clientes por usuario; un usuario puede tener varias sesiones abiertas
	porUsuario map[uuid.UUID]map[*Cliente]struct{}
	todos      map[*Cliente]struct{}

	registrar chan *Cliente
	baja      chan *Cliente
	done      chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		porUsuario: make(map[uuid.UUID]map[*Cliente]struct{}),
		todos:      make(map[*Cliente]struct{}),
		registrar:  make(chan *Cliente),
		baja:       make(chan *Cliente),
		done:       make(chan struct{}),
	}
}

// Run atiende altas y bajas de clientes hasta que el contexto se cancele.
// Debe arrancarse en su propia goroutine desde el punto de composicion.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.registrar:
			h.agregar(c)
		case c := <-h.baja:
			h.quitar(c)
		case <-ctx.Done():
			h.cerrarTodos()
			return
		}
	}
}

// Done se cierra cuando el hub terminado de apagar todas las conexiones.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) agregar(c *Cliente) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.todos[c] = struct{}{}
	sesiones, ok := h.porUsuario[c.usuarioID]
	if !ok {
		sesiones = make(map[*Cliente]struct{})
		h.porUsuario[c.usuarioID] = sesiones
	}
	sesiones[c] = struct{}{}
	log.Debug().
		Str("usuario_id", c.usuarioID.String()).
		Str("session_id", c.sessionID).
		Int("conexiones", len(h.todos)).
		Msg("cliente websocket registrado")
}

func (h *Hub) quitar(c *Cliente) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.todos[c]; !ok {
		return
	}
	delete(h.todos, c)
	c.cerrarEnvio()
	if sesiones, ok := h.porUsuario[c.usuarioID]; ok {
		delete(sesiones, c)
		if len(sesiones) == 0 {
			delete(h.porUsuario, c.usuarioID)
		}
	}
	log.Debug().
		Str("usuario_id", c.usuarioID.String()).
		Str("session_id", c.sessionID).
		Int("conexiones", len(h.todos)).
		Msg("cliente websocket dado de baja")
}

func (h *Hub) cerrarTodos() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.todos {
		c.cerrarEnvio()
	}
	h.todos = make(map[*Cliente]struct{})
	h.porUsuario = make(map[uuid.UUID]map[*Cliente]struct{})
}

// Broadcast envia el evento a todas las conexiones activas. Las sesiones
// cuyo buffer este lleno se descartan en lugar de bloquear al emisor.
func (h *Hub) Broadcast(event string, data any) error {
	msg, err := json.Marshal(Evento{Event: event, Data: data})
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.todos {
		c.encolar(msg)
	}
	return nil
}

// SendToUser envia el evento a todas las sesiones abiertas del usuario.
// Si el usuario no tiene sesiones activas la llamada no hace nada.
func (h *Hub) SendToUser(usuarioID uuid.UUID, event string, data any) error {
	msg, err := json.Marshal(Evento{Event: event, Data: data})
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.porUsuario[usuarioID] {
		c.encolar(msg)
	}
	return nil
}

// Conexiones devuelve el numero de sesiones activas.
func (h *Hub) Conexiones() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.todos)
}

// UsuariosConectados devuelve cuantos usuarios distintos tienen al menos
// una sesion abierta.
func (h *Hub) UsuariosConectados() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.porUsuario)
}
