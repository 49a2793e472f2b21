package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	plazoEscritura  = 10 * time.Second
	plazoPong       = 60 * time.Second
	periodoPing     = (plazoPong * 9) / 10
	tamMaximoMsg    = 4 * 1024
	bufferPorSesion = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Cliente es una sesion websocket ya autenticada. El usuario y la sesion se
// asignan en el servidor durante el upgrade y no cambian despues.
type Cliente struct {
	hub       *Hub
	conn      *websocket.Conn
	usuarioID uuid.UUID
	sessionID string
	fin       chan struct{}

	// mu protege envio contra el cierre desde el hub: una vez cerrado no se
	// encola nada mas.
	mu      sync.Mutex
	envio   chan []byte
	cerrado bool
}

// Registrar hace upgrade de la peticion HTTP, crea el Cliente con la
// identidad verificada que recibe y lo da de alta en el hub. Devuelve el
// cliente registrado; el llamador puede usar Esperar para bloquearse hasta
// que la conexion termine.
func (h *Hub) Registrar(w http.ResponseWriter, r *http.Request, usuarioID uuid.UUID, sessionID string) (*Cliente, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	c := &Cliente{
		hub:       h,
		conn:      conn,
		usuarioID: usuarioID,
		sessionID: sessionID,
		envio:     make(chan []byte, bufferPorSesion),
		fin:       make(chan struct{}),
	}
	h.registrar <- c
	go c.bombaEscritura()
	go c.bombaLectura()
	return c, nil
}

// SessionID devuelve el identificador de sesion asignado por el servidor.
func (c *Cliente) SessionID() string { return c.sessionID }

// UsuarioID devuelve el usuario autenticado dueño de la sesion.
func (c *Cliente) UsuarioID() uuid.UUID { return c.usuarioID }

// Esperar bloquea hasta que la conexion se cierra.
func (c *Cliente) Esperar() { <-c.fin }

// Fin devuelve el canal que se cierra cuando termina la conexion. Permite al
// llamador combinar la espera con sus propios tickers.
func (c *Cliente) Fin() <-chan struct{} { return c.fin }

// Enviar encola un evento solo para esta sesion.
func (c *Cliente) Enviar(event string, data any) error {
	msg, err := json.Marshal(Evento{Event: event, Data: data})
	if err != nil {
		return err
	}
	c.encolar(msg)
	return nil
}

func (c *Cliente) encolar(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cerrado {
		// la sesion ya fue dada de baja; el evento se pierde sin mas
		return
	}
	select {
	case c.envio <- msg:
	default:
		// buffer lleno: la sesion va atrasada, se descarta el mensaje
		log.Warn().
			Str("usuario_id", c.usuarioID.String()).
			Str("session_id", c.sessionID).
			Msg("buffer de sesion lleno, evento descartado")
	}
}

// cerrarEnvio cierra el canal de salida una sola vez. Lo invoca el hub al
// dar de baja la sesion o al apagarse.
func (c *Cliente) cerrarEnvio() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cerrado {
		return
	}
	c.cerrado = true
	close(c.envio)
}

// bombaLectura consume frames entrantes solo para detectar el cierre y
// mantener vivo el pong. Los clientes no mandan eventos de aplicacion.
func (c *Cliente) bombaLectura() {
	defer func() {
		select {
		case c.hub.baja <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		close(c.fin)
	}()
	c.conn.SetReadLimit(tamMaximoMsg)
	c.conn.SetReadDeadline(time.Now().Add(plazoPong))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(plazoPong))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("session_id", c.sessionID).Msg("cierre inesperado de websocket")
			}
			return
		}
	}
}

func (c *Cliente) bombaEscritura() {
	ticker := time.NewTicker(periodoPing)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.envio:
			c.conn.SetWriteDeadline(time.Now().Add(plazoEscritura))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(plazoEscritura))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
