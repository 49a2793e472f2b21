package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/config"
	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/infra"
	"github.com/mgfere/kinoa-rolls/internal/model"
	"github.com/mgfere/kinoa-rolls/internal/repository"
	"github.com/mgfere/kinoa-rolls/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FactorIVA es el multiplicador de impuesto aplicado al subtotal.
var FactorIVA = decimal.NewFromFloat(1.12)

// maxIntentosCodigo acota los reintentos cuando el codigo generado choca con
// la restriccion de unicidad.
const maxIntentosCodigo = 3

type PedidoService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error)
	ObtenerPorID(ctx context.Context, usuarioID uuid.UUID, esAdmin bool, id uuid.UUID) (*dto.PedidoResponse, error)
	ListarPorUsuario(ctx context.Context, usuarioID uuid.UUID) ([]dto.PedidoResponse, error)
	ListarAdmin(ctx context.Context, filter dto.PedidoFilter) (*dto.PedidoListResponse, error)
	CambiarEstado(ctx context.Context, id uuid.UUID, req dto.CambiarEstadoRequest) (*dto.PedidoResponse, error)
	EstadisticasDashboard(ctx context.Context) (*dto.DashboardResponse, error)
}

type pedidoService struct {
	repo         repository.PedidoRepository
	productoRepo repository.ProductoRepository
	usuarioRepo  repository.UsuarioRepository
	notif        NotificacionService
	dispatcher   *worker.Dispatcher
	cfg          *config.Config
}

func NewPedidoService(
	repo repository.PedidoRepository,
	productoRepo repository.ProductoRepository,
	usuarioRepo repository.UsuarioRepository,
	notif NotificacionService,
	dispatcher *worker.Dispatcher,
	cfg *config.Config,
) PedidoService {
	return &pedidoService{
		repo:         repo,
		productoRepo: productoRepo,
		usuarioRepo:  usuarioRepo,
		notif:        notif,
		dispatcher:   dispatcher,
		cfg:          cfg,
	}
}

// ── Crear ────────────────────────────────────────────────────────────────────
// Transaccion ACID completa:
//  1. Filtrar lineas con cantidad cero; el carrito debe conservar al menos una
//  2. Resolver cada producto del catalogo; el precio viene siempre de la BD
//  3. total = (Σ precio × cantidad) × 1.12, redondeado a 2 decimales
//  4. BEGIN TX: crear pedido+detalles, refrescar perfil, notificar admins
//  5. COMMIT — reintenta con otro codigo si choca la unicidad
//  6. (post-commit) push new_order + correo de confirmacion asincrono

func (s *pedidoService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error) {
	// 1. Lineas efectivas
	var items []dto.ItemPedidoRequest
	for _, it := range req.Items {
		if it.Cantidad > 0 {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return nil, apierror.Invalid("el pedido debe tener al menos un producto")
	}

	// 2. Resolver productos — el precio nunca viene del cliente
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		pid, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, apierror.Invalid("producto_id invalido")
		}
		ids = append(ids, pid)
	}
	productos, err := s.productoRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apierror.Storage("no se pudo consultar el catalogo")
	}
	porID := make(map[uuid.UUID]*model.Producto, len(productos))
	for i := range productos {
		porID[productos[i].ID] = &productos[i]
	}

	subtotal := decimal.Zero
	detalles := make([]model.DetallePedido, 0, len(items))
	for i, it := range items {
		p, ok := porID[ids[i]]
		if !ok {
			return nil, apierror.NotFound(fmt.Sprintf("producto %s no encontrado", it.ProductoID))
		}
		if !p.Disponible {
			return nil, apierror.Invalid(fmt.Sprintf("el producto %s no esta disponible", p.Nombre))
		}
		linea := model.DetallePedido{
			ProductoID:     p.ID,
			Cantidad:       it.Cantidad,
			PrecioUnitario: p.Precio,
			Nota:           optStr(it.Nota),
		}
		subtotal = subtotal.Add(linea.Subtotal())
		detalles = append(detalles, linea)
	}

	// 3. IVA incluido en el total persistido
	total := subtotal.Mul(FactorIVA).Round(2)

	admins, err := s.usuarioRepo.ListAdmins(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("no se pudieron listar los admins para notificar")
	}

	// 4-5. Transaccion con reintento de codigo
	var pedido *model.Pedido
	for intento := 0; ; intento++ {
		pedido = &model.Pedido{
			CodigoPedido: generarCodigo(),
			UsuarioID:    usuarioID,
			Total:        total,
			Estado:       model.EstadoPendiente,
			Notas:        optStr(req.Notas),
			Detalles:     detalles,
		}

		txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
			if err := s.repo.Create(ctx, tx, pedido); err != nil {
				return err
			}
			if err := s.sincronizarPerfilTx(ctx, tx, usuarioID, req); err != nil {
				return err
			}
			for _, admin := range admins {
				n := &model.Notificacion{
					UsuarioID: admin.ID,
					Tipo:      model.NotificacionNuevoPedido,
					Titulo:    "Nuevo pedido",
					Mensaje:   fmt.Sprintf("Pedido %s por $%s", pedido.CodigoPedido, pedido.Total.StringFixed(2)),
					PedidoID:  &pedido.ID,
				}
				if err := s.notif.CrearTx(tx, n); err != nil {
					return err
				}
			}
			return nil
		})
		if txErr == nil {
			break
		}
		if errors.Is(txErr, repository.ErrCodigoDuplicado) && intento < maxIntentosCodigo-1 {
			log.Debug().Str("codigo", pedido.CodigoPedido).Msg("codigo de pedido duplicado, reintentando")
			continue
		}
		if errors.Is(txErr, repository.ErrCodigoDuplicado) {
			return nil, apierror.Conflict("no se pudo asignar un codigo de pedido, intenta de nuevo")
		}
		return nil, apierror.Storage("no se pudo registrar el pedido")
	}

	// 6. Mejor esfuerzo: push en vivo y correo de confirmacion.
	// El pedido ya esta confirmado; nada de esto lo revierte.
	pedido.Detalles = detalles
	// adjuntar los productos ya resueltos: el ticket PDF y la respuesta
	// toman el nombre de cada linea de aqui
	for i := range pedido.Detalles {
		pedido.Detalles[i].Producto = porID[pedido.Detalles[i].ProductoID]
	}
	s.notif.PushNuevoPedido(pedido)
	s.enviarConfirmacion(ctx, usuarioID, pedido)

	resp := s.pedidoToResponse(ctx, pedido)
	return &resp, nil
}

// sincronizarPerfilTx refresca los datos de contacto y entrega del perfil con
// lo capturado en el checkout.
func (s *pedidoService) sincronizarPerfilTx(ctx context.Context, tx *gorm.DB, usuarioID uuid.UUID, req dto.CrearPedidoRequest) error {
	perfil, err := s.usuarioRepo.FindPerfil(ctx, usuarioID)
	if err != nil {
		// Cuenta sin perfil (sembrada a mano): el pedido no se bloquea por eso.
		log.Warn().Err(err).Str("usuario_id", usuarioID.String()).Msg("pedido sin perfil que sincronizar")
		return nil
	}
	perfil.Nombre = req.Nombre
	perfil.Colonia = optStr(req.Colonia)
	perfil.Calle = optStr(req.Calle)
	perfil.NoExterior = optStr(req.NoExterior)
	if err := s.usuarioRepo.UpdatePerfilTx(tx, perfil); err != nil {
		return err
	}
	return s.usuarioRepo.UpdateTelefonoTx(tx, usuarioID, req.Telefono)
}

// enviarConfirmacion genera el ticket PDF y encola el correo si el perfil
// tiene email registrado.
func (s *pedidoService) enviarConfirmacion(ctx context.Context, usuarioID uuid.UUID, pedido *model.Pedido) {
	if s.dispatcher == nil {
		return
	}
	perfil, err := s.usuarioRepo.FindPerfil(ctx, usuarioID)
	if err != nil || perfil.Email == nil || *perfil.Email == "" {
		return
	}

	pdfPath, err := infra.GenerateTicketPDF(pedido, s.cfg.TicketStoragePath)
	if err != nil {
		log.Warn().Err(err).Str("codigo", pedido.CodigoPedido).Msg("no se pudo generar el ticket PDF")
		pdfPath = ""
	}

	job := worker.EmailJobPayload{
		ToEmail: *perfil.Email,
		Subject: fmt.Sprintf("Kinoa Rolls — pedido %s recibido", pedido.CodigoPedido),
		Body: fmt.Sprintf("¡Gracias por tu pedido!\n\nCodigo: %s\nTotal: $%s (IVA incluido)\n\nTe avisaremos cuando este listo.",
			pedido.CodigoPedido, pedido.Total.StringFixed(2)),
		PDFPath: pdfPath,
	}
	if err := s.dispatcher.EnqueueEmail(ctx, job); err != nil {
		log.Warn().Err(err).Str("codigo", pedido.CodigoPedido).Msg("no se pudo encolar el correo de confirmacion")
	}
}

// ── Consultas ───────────────────────────────────────────────────────────────

func (s *pedidoService) ObtenerPorID(ctx context.Context, usuarioID uuid.UUID, esAdmin bool, id uuid.UUID) (*dto.PedidoResponse, error) {
	pedido, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("pedido no encontrado")
	}
	if !esAdmin && pedido.UsuarioID != usuarioID {
		return nil, apierror.Forbidden("el pedido no te pertenece")
	}
	resp := s.pedidoToResponse(ctx, pedido)
	return &resp, nil
}

func (s *pedidoService) ListarPorUsuario(ctx context.Context, usuarioID uuid.UUID) ([]dto.PedidoResponse, error) {
	pedidos, err := s.repo.ListByUsuario(ctx, usuarioID)
	if err != nil {
		return nil, apierror.Storage("no se pudieron listar los pedidos")
	}
	resp := make([]dto.PedidoResponse, len(pedidos))
	for i := range pedidos {
		resp[i] = s.pedidoToResponse(ctx, &pedidos[i])
	}
	return resp, nil
}

func (s *pedidoService) ListarAdmin(ctx context.Context, filter dto.PedidoFilter) (*dto.PedidoListResponse, error) {
	if filter.Estado != "" && filter.Estado != "all" {
		if _, err := model.ParseEstado(filter.Estado); err != nil {
			return nil, apierror.Invalid("estado de filtro desconocido")
		}
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}

	pedidos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apierror.Storage("no se pudieron listar los pedidos")
	}
	resp := &dto.PedidoListResponse{
		Data:  make([]dto.PedidoResponse, len(pedidos)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range pedidos {
		resp.Data[i] = s.pedidoToResponse(ctx, &pedidos[i])
	}
	return resp, nil
}

// ── CambiarEstado ───────────────────────────────────────────────────────────
// Valida contra la tabla de transiciones, actualiza el estado y deja la
// notificacion durable para el dueño en la misma transaccion. El push en vivo
// va despues del commit.

func (s *pedidoService) CambiarEstado(ctx context.Context, id uuid.UUID, req dto.CambiarEstadoRequest) (*dto.PedidoResponse, error) {
	destino, err := model.ParseEstado(req.Estado)
	if err != nil {
		return nil, apierror.Invalid("estado desconocido")
	}

	pedido, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("pedido no encontrado")
	}
	if !pedido.Estado.PuedeTransicionar(destino) {
		return nil, apierror.Invalid(fmt.Sprintf("transicion de %s a %s no permitida", pedido.Estado, destino))
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateEstadoTx(tx, id, destino); err != nil {
			return err
		}
		n := &model.Notificacion{
			UsuarioID: pedido.UsuarioID,
			Tipo:      model.NotificacionCambioEstado,
			Titulo:    "Tu pedido cambio de estado",
			Mensaje:   fmt.Sprintf("El pedido %s ahora esta %s", pedido.CodigoPedido, destino),
			PedidoID:  &pedido.ID,
		}
		return s.notif.CrearTx(tx, n)
	})
	if txErr != nil {
		return nil, apierror.Storage("no se pudo cambiar el estado del pedido")
	}

	pedido.Estado = destino
	s.notif.PushCambioEstado(pedido)

	resp := s.pedidoToResponse(ctx, pedido)
	return &resp, nil
}

// ── Dashboard ───────────────────────────────────────────────────────────────

func (s *pedidoService) EstadisticasDashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	// medianoche local, no el corte del dia UTC
	ahora := time.Now()
	hoy := time.Date(ahora.Year(), ahora.Month(), ahora.Day(), 0, 0, 0, 0, ahora.Location())

	totalPedidos, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, apierror.Storage("no se pudieron calcular las estadisticas")
	}
	pedidosHoy, err := s.repo.CountDesde(ctx, hoy)
	if err != nil {
		return nil, apierror.Storage("no se pudieron calcular las estadisticas")
	}
	pendientes, err := s.repo.CountPorEstado(ctx, model.EstadoPendiente)
	if err != nil {
		return nil, apierror.Storage("no se pudieron calcular las estadisticas")
	}
	usuarios, err := s.usuarioRepo.Count(ctx)
	if err != nil {
		return nil, apierror.Storage("no se pudieron calcular las estadisticas")
	}
	productos, err := s.productoRepo.CountDisponibles(ctx)
	if err != nil {
		return nil, apierror.Storage("no se pudieron calcular las estadisticas")
	}

	return &dto.DashboardResponse{
		TotalPedidos:      totalPedidos,
		PedidosHoy:        pedidosHoy,
		PedidosPendientes: pendientes,
		TotalUsuarios:     usuarios,
		TotalProductos:    productos,
	}, nil
}

// ── Helpers ─────────────────────────────────────────────────────────────────

// generarCodigo produce un codigo corto legible: letra mayuscula + numero de
// cuatro cifras (p.ej. "A7492"). La unicidad la garantiza la BD.
func generarCodigo() string {
	letra := rune('A' + rand.Intn(26))
	numero := 1000 + rand.Intn(9000)
	return fmt.Sprintf("%c%d", letra, numero)
}

func (s *pedidoService) pedidoToResponse(ctx context.Context, p *model.Pedido) dto.PedidoResponse {
	resp := dto.PedidoResponse{
		ID:           p.ID.String(),
		CodigoPedido: p.CodigoPedido,
		Total:        p.Total,
		Estado:       string(p.Estado),
		CreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.Notas != nil {
		resp.Notas = *p.Notas
	}
	if p.Usuario != nil {
		resp.Cliente = p.Usuario.Username
	}

	resp.Detalles = make([]dto.DetallePedidoResponse, len(p.Detalles))
	for i := range p.Detalles {
		d := &p.Detalles[i]
		item := dto.DetallePedidoResponse{
			Cantidad:       d.Cantidad,
			PrecioUnitario: d.PrecioUnitario,
			Subtotal:       d.Subtotal(),
		}
		if d.Producto != nil {
			item.Producto = d.Producto.Nombre
		} else if prod, err := s.productoRepo.FindByID(ctx, d.ProductoID); err == nil {
			item.Producto = prod.Nombre
		}
		resp.Detalles[i] = item
	}
	return resp
}
