package service

// In-memory repository stubs shared by the service tests. DB() returns nil so
// runTx executes the transaction body directly.

import (
	"context"
	"errors"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/model"
	"github.com/mgfere/kinoa-rolls/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errNoEncontrado = errors.New("record not found")

// ── PedidoRepository ────────────────────────────────────────────────────────

type stubPedidoRepo struct {
	pedidos map[uuid.UUID]*model.Pedido
	// codigos vistos en orden de llegada, incluidos los intentos rechazados
	codigosIntentados []string
	// fallosCodigo hace fallar las primeras n llamadas a Create con
	// ErrCodigoDuplicado
	fallosCodigo int
}

func newStubPedidoRepo() *stubPedidoRepo {
	return &stubPedidoRepo{pedidos: make(map[uuid.UUID]*model.Pedido)}
}

func (r *stubPedidoRepo) DB() *gorm.DB { return nil }

func (r *stubPedidoRepo) Create(_ context.Context, _ *gorm.DB, p *model.Pedido) error {
	r.codigosIntentados = append(r.codigosIntentados, p.CodigoPedido)
	if r.fallosCodigo > 0 {
		r.fallosCodigo--
		return repository.ErrCodigoDuplicado
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	clon := *p
	r.pedidos[p.ID] = &clon
	return nil
}

func (r *stubPedidoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pedido, error) {
	p, ok := r.pedidos[id]
	if !ok {
		return nil, errNoEncontrado
	}
	clon := *p
	return &clon, nil
}

func (r *stubPedidoRepo) ListByUsuario(_ context.Context, usuarioID uuid.UUID) ([]model.Pedido, error) {
	var out []model.Pedido
	for _, p := range r.pedidos {
		if p.UsuarioID == usuarioID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubPedidoRepo) List(_ context.Context, _ dto.PedidoFilter) ([]model.Pedido, int64, error) {
	var out []model.Pedido
	for _, p := range r.pedidos {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubPedidoRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado model.EstadoPedido) error {
	p, ok := r.pedidos[id]
	if !ok {
		return errNoEncontrado
	}
	p.Estado = estado
	return nil
}

func (r *stubPedidoRepo) CountAll(_ context.Context) (int64, error) {
	return int64(len(r.pedidos)), nil
}

func (r *stubPedidoRepo) CountDesde(_ context.Context, desde time.Time) (int64, error) {
	var n int64
	for _, p := range r.pedidos {
		if !p.CreatedAt.Before(desde) {
			n++
		}
	}
	return n, nil
}

func (r *stubPedidoRepo) CountPorEstado(_ context.Context, estado model.EstadoPedido) (int64, error) {
	var n int64
	for _, p := range r.pedidos {
		if p.Estado == estado {
			n++
		}
	}
	return n, nil
}

// ── ProductoRepository ──────────────────────────────────────────────────────

type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
}

func newStubProductoRepo(productos ...*model.Producto) *stubProductoRepo {
	r := &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
	for _, p := range productos {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.productos[p.ID] = p
	}
	return r
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, errNoEncontrado
	}
	return p, nil
}

func (r *stubProductoRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Producto, error) {
	var out []model.Producto
	for _, id := range ids {
		if p, ok := r.productos[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) ListDisponibles(_ context.Context) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.productos {
		if p.Disponible {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) List(_ context.Context, _ dto.ProductoFilter) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.productos {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) SetDisponible(_ context.Context, id uuid.UUID, disponible bool) error {
	p, ok := r.productos[id]
	if !ok {
		return errNoEncontrado
	}
	p.Disponible = disponible
	return nil
}

func (r *stubProductoRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.productos, id)
	return nil
}

func (r *stubProductoRepo) UpdateImagen(_ context.Context, id uuid.UUID, imagen []byte) error {
	p, ok := r.productos[id]
	if !ok {
		return errNoEncontrado
	}
	p.Imagen = imagen
	return nil
}

func (r *stubProductoRepo) CountDisponibles(_ context.Context) (int64, error) {
	var n int64
	for _, p := range r.productos {
		if p.Disponible {
			n++
		}
	}
	return n, nil
}

// ── UsuarioRepository ───────────────────────────────────────────────────────

type stubUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
	perfiles map[uuid.UUID]*model.PerfilUsuario // por usuario
	roles    map[string]*model.Rol
}

func newStubUsuarioRepo() *stubUsuarioRepo {
	return &stubUsuarioRepo{
		usuarios: make(map[uuid.UUID]*model.Usuario),
		perfiles: make(map[uuid.UUID]*model.PerfilUsuario),
		roles:    make(map[string]*model.Rol),
	}
}

func (r *stubUsuarioRepo) agregarUsuario(rol string, conPerfil bool) *model.Usuario {
	ro, ok := r.roles[rol]
	if !ok {
		ro = &model.Rol{ID: uuid.New(), Nombre: rol}
		r.roles[rol] = ro
	}
	u := &model.Usuario{
		ID:     uuid.New(),
		Activo: true,
		RolID:  ro.ID,
		Rol:    ro,
	}
	u.Username = "user-" + u.ID.String()[:8]
	r.usuarios[u.ID] = u
	if conPerfil {
		r.perfiles[u.ID] = &model.PerfilUsuario{ID: uuid.New(), UsuarioID: u.ID}
	}
	return u
}

func (r *stubUsuarioRepo) DB() *gorm.DB { return nil }

func (r *stubUsuarioRepo) Create(_ context.Context, _ *gorm.DB, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	r.usuarios[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) FindByUsername(_ context.Context, username string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, errNoEncontrado
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, errNoEncontrado
	}
	return u, nil
}

func (r *stubUsuarioRepo) List(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUsuarioRepo) ListAdmins(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		if u.EsAdmin() && u.Activo {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUsuarioRepo) SetActivo(_ context.Context, id uuid.UUID, activo bool) error {
	u, ok := r.usuarios[id]
	if !ok {
		return errNoEncontrado
	}
	u.Activo = activo
	return nil
}

func (r *stubUsuarioRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.usuarios)), nil
}

func (r *stubUsuarioRepo) FindRolPorNombre(_ context.Context, nombre string) (*model.Rol, error) {
	ro, ok := r.roles[nombre]
	if !ok {
		return nil, errNoEncontrado
	}
	return ro, nil
}

func (r *stubUsuarioRepo) EnsureRol(_ context.Context, nombre string) (*model.Rol, error) {
	if ro, ok := r.roles[nombre]; ok {
		return ro, nil
	}
	ro := &model.Rol{ID: uuid.New(), Nombre: nombre}
	r.roles[nombre] = ro
	return ro, nil
}

func (r *stubUsuarioRepo) CreatePerfil(_ context.Context, _ *gorm.DB, p *model.PerfilUsuario) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.perfiles[p.UsuarioID] = p
	return nil
}

func (r *stubUsuarioRepo) FindPerfil(_ context.Context, usuarioID uuid.UUID) (*model.PerfilUsuario, error) {
	p, ok := r.perfiles[usuarioID]
	if !ok {
		return nil, errNoEncontrado
	}
	return p, nil
}

func (r *stubUsuarioRepo) FindPerfilPorEmail(_ context.Context, email string) (*model.PerfilUsuario, error) {
	for _, p := range r.perfiles {
		if p.Email != nil && *p.Email == email {
			return p, nil
		}
	}
	return nil, errNoEncontrado
}

func (r *stubUsuarioRepo) UpdatePerfilTx(_ *gorm.DB, p *model.PerfilUsuario) error {
	r.perfiles[p.UsuarioID] = p
	return nil
}

func (r *stubUsuarioRepo) UpdatePerfil(_ context.Context, p *model.PerfilUsuario) error {
	r.perfiles[p.UsuarioID] = p
	return nil
}

func (r *stubUsuarioRepo) UpdateTelefonoTx(_ *gorm.DB, usuarioID uuid.UUID, telefono string) error {
	u, ok := r.usuarios[usuarioID]
	if !ok {
		return errNoEncontrado
	}
	u.Telefono = telefono
	return nil
}

func (r *stubUsuarioRepo) UpdatePasswordHash(_ context.Context, usuarioID uuid.UUID, hash string) error {
	u, ok := r.usuarios[usuarioID]
	if !ok {
		return errNoEncontrado
	}
	u.PasswordHash = hash
	return nil
}

// ── NotificacionRepository ──────────────────────────────────────────────────

type stubNotificacionRepo struct {
	notificaciones []*model.Notificacion
}

func newStubNotificacionRepo() *stubNotificacionRepo { return &stubNotificacionRepo{} }

func (r *stubNotificacionRepo) CreateTx(_ *gorm.DB, n *model.Notificacion) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.CreatedAt = time.Now()
	clon := *n
	r.notificaciones = append(r.notificaciones, &clon)
	return nil
}

func (r *stubNotificacionRepo) ListByUsuario(_ context.Context, usuarioID uuid.UUID, _ int) ([]model.Notificacion, error) {
	var out []model.Notificacion
	for _, n := range r.notificaciones {
		if n.UsuarioID == usuarioID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *stubNotificacionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Notificacion, error) {
	for _, n := range r.notificaciones {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, errNoEncontrado
}

func (r *stubNotificacionRepo) MarcarLeida(_ context.Context, id uuid.UUID) error {
	for _, n := range r.notificaciones {
		if n.ID == id {
			n.Leida = true
			return nil
		}
	}
	return errNoEncontrado
}

func (r *stubNotificacionRepo) CountNoLeidas(_ context.Context, usuarioID uuid.UUID) (int64, error) {
	var c int64
	for _, n := range r.notificaciones {
		if n.UsuarioID == usuarioID && !n.Leida {
			c++
		}
	}
	return c, nil
}

func (r *stubNotificacionRepo) porTipo(tipo string) []*model.Notificacion {
	var out []*model.Notificacion
	for _, n := range r.notificaciones {
		if n.Tipo == tipo {
			out = append(out, n)
		}
	}
	return out
}

// ── Pusher ──────────────────────────────────────────────────────────────────

type pushEvento struct {
	event     string
	usuarioID uuid.UUID // uuid.Nil para broadcast
	data      any
}

type stubPusher struct {
	eventos []pushEvento
	fallar  bool
}

func (p *stubPusher) Broadcast(event string, data any) error {
	if p.fallar {
		return errors.New("hub caido")
	}
	p.eventos = append(p.eventos, pushEvento{event: event, data: data})
	return nil
}

func (p *stubPusher) SendToUser(usuarioID uuid.UUID, event string, data any) error {
	if p.fallar {
		return errors.New("hub caido")
	}
	p.eventos = append(p.eventos, pushEvento{event: event, usuarioID: usuarioID, data: data})
	return nil
}
