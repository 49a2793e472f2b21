package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/config"
	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pedidoFixture struct {
	svc       PedidoService
	pedidos   *stubPedidoRepo
	productos *stubProductoRepo
	usuarios  *stubUsuarioRepo
	notis     *stubNotificacionRepo
	pusher    *stubPusher
	cliente   *model.Usuario
	admin     *model.Usuario
}

func newPedidoFixture(t *testing.T, productos ...*model.Producto) *pedidoFixture {
	t.Helper()
	f := &pedidoFixture{
		pedidos:   newStubPedidoRepo(),
		productos: newStubProductoRepo(productos...),
		usuarios:  newStubUsuarioRepo(),
		notis:     newStubNotificacionRepo(),
		pusher:    &stubPusher{},
	}
	f.cliente = f.usuarios.agregarUsuario(model.RolCliente, true)
	f.admin = f.usuarios.agregarUsuario(model.RolAdmin, false)

	notifSvc := NewNotificacionService(f.notis, f.pusher)
	f.svc = NewPedidoService(f.pedidos, f.productos, f.usuarios, notifSvc, nil, &config.Config{})
	return f
}

func productoDisponible(nombre string, precio string) *model.Producto {
	p := decimal.RequireFromString(precio)
	return &model.Producto{ID: uuid.New(), Nombre: nombre, Precio: p, Disponible: true}
}

func reqPedido(items ...dto.ItemPedidoRequest) dto.CrearPedidoRequest {
	return dto.CrearPedidoRequest{
		Items:      items,
		Nombre:     "Maria Garcia",
		Telefono:   "5512345678",
		Colonia:    "Centro",
		Calle:      "Reforma",
		NoExterior: "12",
	}
}

func TestCrearPedidoAplicaIVA(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)

	resp, err := f.svc.Crear(context.Background(), f.cliente.ID,
		reqPedido(dto.ItemPedidoRequest{ProductoID: roll.ID.String(), Cantidad: 1}))
	require.NoError(t, err)

	// 23.50 × 1.12 = 26.32
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("26.32")),
		"total esperado 26.32, obtenido %s", resp.Total)
	assert.Equal(t, "pendiente", resp.Estado)
	require.Len(t, resp.Detalles, 1)
	assert.True(t, resp.Detalles[0].PrecioUnitario.Equal(roll.Precio))
}

func TestCrearPedidoPrecioDelCatalogo(t *testing.T) {
	// El precio unitario persistido sale siempre del catalogo, y el total se
	// redondea a 2 decimales tras aplicar el IVA.
	roll := productoDisponible("Dragon Roll", "99.99")
	te := productoDisponible("Te verde", "18.00")
	f := newPedidoFixture(t, roll, te)

	resp, err := f.svc.Crear(context.Background(), f.cliente.ID, reqPedido(
		dto.ItemPedidoRequest{ProductoID: roll.ID.String(), Cantidad: 2},
		dto.ItemPedidoRequest{ProductoID: te.ID.String(), Cantidad: 1},
	))
	require.NoError(t, err)

	// (99.99×2 + 18.00) × 1.12 = 217.98 × 1.12 = 244.1376 → 244.14
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("244.14")),
		"total esperado 244.14, obtenido %s", resp.Total)
}

func TestCrearPedidoFiltraCantidadCero(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	agua := productoDisponible("Agua", "15.00")
	f := newPedidoFixture(t, roll, agua)

	resp, err := f.svc.Crear(context.Background(), f.cliente.ID, reqPedido(
		dto.ItemPedidoRequest{ProductoID: agua.ID.String(), Cantidad: 0},
		dto.ItemPedidoRequest{ProductoID: roll.ID.String(), Cantidad: 1},
	))
	require.NoError(t, err)
	require.Len(t, resp.Detalles, 1)
	assert.Equal(t, "Salmon Roll", resp.Detalles[0].Producto)
}

func TestCrearPedidoCarritoVacio(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)

	_, err := f.svc.Crear(context.Background(), f.cliente.ID,
		reqPedido(dto.ItemPedidoRequest{ProductoID: roll.ID.String(), Cantidad: 0}))
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidInput))
	assert.Empty(t, f.pedidos.pedidos, "no debe persistirse ningun pedido")
}

func TestCrearPedidoProductoNoDisponible(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	roll.Disponible = false
	f := newPedidoFixture(t, roll)

	_, err := f.svc.Crear(context.Background(), f.cliente.ID,
		reqPedido(dto.ItemPedidoRequest{ProductoID: roll.ID.String(), Cantidad: 1}))
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidInput))
}

func TestCrearPedidoProductoInexistente(t *testing.T) {
	f := newPedidoFixture(t)

	_, err := f.svc.Crear(context.Background(), f.cliente.ID,
		reqPedido(dto.ItemPedidoRequest{ProductoID: uuid.NewString(), Cantidad: 1}))
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindNotFound))
}

func TestCrearPedidoNotificaAdminsYDifunde(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)

	resp, err := f.svc.Crear(context.Background(), f.cliente.ID,
		reqPedido(dto.ItemPedidoRequest{ProductoID: roll.ID.String(), Cantidad: 1}))
	require.NoError(t, err)

	nuevas := f.notis.porTipo(model.NotificacionNuevoPedido)
	require.Len(t, nuevas, 1, "una notificacion durable por admin")
	assert.Equal(t, f.admin.ID, nuevas[0].UsuarioID)
	require.NotNil(t, nuevas[0].PedidoID)
	assert.Equal(t, resp.ID, nuevas[0].PedidoID.String())

	require.Len(t, f.pusher.eventos, 1)
	assert.Equal(t, "new_order", f.pusher.eventos[0].event)
}

func TestCrearPedidoSincronizaPerfil(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)

	req := reqPedido(dto.ItemPedidoRequest{ProductoID: roll.ID.String(), Cantidad: 1})
	_, err := f.svc.Crear(context.Background(), f.cliente.ID, req)
	require.NoError(t, err)

	perfil := f.usuarios.perfiles[f.cliente.ID]
	require.NotNil(t, perfil)
	assert.Equal(t, "Maria Garcia", perfil.Nombre)
	require.NotNil(t, perfil.Colonia)
	assert.Equal(t, "Centro", *perfil.Colonia)
	assert.Equal(t, "5512345678", f.usuarios.usuarios[f.cliente.ID].Telefono)
}

func TestCrearPedidoAdjuntaProductosALasLineas(t *testing.T) {
	// El pedido que sale de Crear alimenta el ticket PDF y los eventos en
	// vivo sin volver a consultar el catalogo: cada linea debe traer su
	// producto resuelto.
	roll := productoDisponible("Salmon Roll", "8.00")
	tuna := productoDisponible("Tuna Roll", "7.50")
	f := newPedidoFixture(t, roll, tuna)

	resp, err := f.svc.Crear(context.Background(), f.cliente.ID, reqPedido(
		dto.ItemPedidoRequest{ProductoID: roll.ID.String(), Cantidad: 2},
		dto.ItemPedidoRequest{ProductoID: tuna.ID.String(), Cantidad: 1},
	))
	require.NoError(t, err)

	id := uuid.MustParse(resp.ID)
	p, err := f.pedidos.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, p.Detalles, 2)
	nombres := make(map[string]bool)
	for _, d := range p.Detalles {
		require.NotNil(t, d.Producto, "cada linea debe llevar su producto")
		nombres[d.Producto.Nombre] = true
	}
	assert.True(t, nombres["Salmon Roll"])
	assert.True(t, nombres["Tuna Roll"])
}

func TestCrearPedidoReintentaCodigoDuplicado(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)
	f.pedidos.fallosCodigo = 2

	resp, err := f.svc.Crear(context.Background(), f.cliente.ID,
		reqPedido(dto.ItemPedidoRequest{ProductoID: roll.ID.String(), Cantidad: 1}))
	require.NoError(t, err)
	assert.Len(t, f.pedidos.codigosIntentados, 3)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z][1-9]\d{3}$`), resp.CodigoPedido)
}

func TestCrearPedidoAgotaReintentosDeCodigo(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)
	f.pedidos.fallosCodigo = 10

	_, err := f.svc.Crear(context.Background(), f.cliente.ID,
		reqPedido(dto.ItemPedidoRequest{ProductoID: roll.ID.String(), Cantidad: 1}))
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindConflict))
	assert.Len(t, f.pedidos.codigosIntentados, 3)
}

func TestCrearPedidoPushCaidoNoRevierte(t *testing.T) {
	// El pedido y su notificacion durable quedan confirmados aunque el canal
	// en tiempo real este caido.
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)
	f.pusher.fallar = true

	resp, err := f.svc.Crear(context.Background(), f.cliente.ID,
		reqPedido(dto.ItemPedidoRequest{ProductoID: roll.ID.String(), Cantidad: 1}))
	require.NoError(t, err)

	id, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	_, err = f.pedidos.FindByID(context.Background(), id)
	assert.NoError(t, err, "el pedido debe quedar persistido")
	assert.Len(t, f.notis.porTipo(model.NotificacionNuevoPedido), 1)
}

func TestGenerarCodigoFormato(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z][1-9]\d{3}$`)
	for i := 0; i < 500; i++ {
		assert.Regexp(t, re, generarCodigo())
	}
}

// ── CambiarEstado ───────────────────────────────────────────────────────────

func crearPedidoDePrueba(t *testing.T, f *pedidoFixture, roll *model.Producto) uuid.UUID {
	t.Helper()
	resp, err := f.svc.Crear(context.Background(), f.cliente.ID,
		reqPedido(dto.ItemPedidoRequest{ProductoID: roll.ID.String(), Cantidad: 1}))
	require.NoError(t, err)
	id, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	return id
}

func TestCambiarEstadoTransicionLegal(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)
	id := crearPedidoDePrueba(t, f, roll)
	f.pusher.eventos = nil

	resp, err := f.svc.CambiarEstado(context.Background(), id, dto.CambiarEstadoRequest{Estado: "en_preparacion"})
	require.NoError(t, err)
	assert.Equal(t, "en_preparacion", resp.Estado)

	// notificacion durable para el dueño + push dirigido
	cambios := f.notis.porTipo(model.NotificacionCambioEstado)
	require.Len(t, cambios, 1)
	assert.Equal(t, f.cliente.ID, cambios[0].UsuarioID)

	require.Len(t, f.pusher.eventos, 1)
	assert.Equal(t, "order_update", f.pusher.eventos[0].event)
	assert.Equal(t, f.cliente.ID, f.pusher.eventos[0].usuarioID)
}

func TestCambiarEstadoSaltaEtapas(t *testing.T) {
	// No toda cocina marca en_preparacion: pendiente -> listo es valido y
	// notifica igual que cualquier otro cambio.
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)
	id := crearPedidoDePrueba(t, f, roll)
	f.pusher.eventos = nil

	resp, err := f.svc.CambiarEstado(context.Background(), id, dto.CambiarEstadoRequest{Estado: "listo"})
	require.NoError(t, err)
	assert.Equal(t, "listo", resp.Estado)

	cambios := f.notis.porTipo(model.NotificacionCambioEstado)
	require.Len(t, cambios, 1)
	assert.Equal(t, f.cliente.ID, cambios[0].UsuarioID)
	require.Len(t, f.pusher.eventos, 1)
	assert.Equal(t, "order_update", f.pusher.eventos[0].event)
}

func TestCambiarEstadoTransicionIlegal(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)
	id := crearPedidoDePrueba(t, f, roll)

	_, err := f.svc.CambiarEstado(context.Background(), id, dto.CambiarEstadoRequest{Estado: "listo"})
	require.NoError(t, err)
	previas := len(f.notis.porTipo(model.NotificacionCambioEstado))

	// el flujo nunca regresa
	_, err = f.svc.CambiarEstado(context.Background(), id, dto.CambiarEstadoRequest{Estado: "pendiente"})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidInput))

	p, _ := f.pedidos.FindByID(context.Background(), id)
	assert.Equal(t, model.EstadoListo, p.Estado, "el estado no debe cambiar")
	assert.Len(t, f.notis.porTipo(model.NotificacionCambioEstado), previas)
}

func TestCambiarEstadoDesconocido(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)
	id := crearPedidoDePrueba(t, f, roll)

	_, err := f.svc.CambiarEstado(context.Background(), id, dto.CambiarEstadoRequest{Estado: "enviado"})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidInput))
}

func TestCambiarEstadoTerminalRechazado(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)
	id := crearPedidoDePrueba(t, f, roll)

	for _, paso := range []string{"en_preparacion", "listo", "entregado"} {
		_, err := f.svc.CambiarEstado(context.Background(), id, dto.CambiarEstadoRequest{Estado: paso})
		require.NoError(t, err)
	}

	_, err := f.svc.CambiarEstado(context.Background(), id, dto.CambiarEstadoRequest{Estado: "cancelado"})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidInput))
}

// ── Consultas ───────────────────────────────────────────────────────────────

func TestObtenerPedidoAjenoProhibido(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)
	id := crearPedidoDePrueba(t, f, roll)

	otro := f.usuarios.agregarUsuario(model.RolCliente, true)
	_, err := f.svc.ObtenerPorID(context.Background(), otro.ID, false, id)
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindForbidden))

	// El admin si puede verlo
	_, err = f.svc.ObtenerPorID(context.Background(), f.admin.ID, true, id)
	assert.NoError(t, err)
}

func TestListarAdminFiltroInvalido(t *testing.T) {
	f := newPedidoFixture(t)
	_, err := f.svc.ListarAdmin(context.Background(), dto.PedidoFilter{Estado: "volando"})
	require.Error(t, err)
	assert.True(t, apierror.IsKind(err, apierror.KindInvalidInput))
}

func TestEstadisticasDashboard(t *testing.T) {
	roll := productoDisponible("Salmon Roll", "23.50")
	f := newPedidoFixture(t, roll)
	crearPedidoDePrueba(t, f, roll)
	crearPedidoDePrueba(t, f, roll)

	stats, err := f.svc.EstadisticasDashboard(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalPedidos)
	assert.EqualValues(t, 2, stats.PedidosPendientes)
	assert.EqualValues(t, 1, stats.TotalProductos)
	assert.EqualValues(t, 2, stats.TotalUsuarios)
}
