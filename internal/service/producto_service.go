package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/model"
	"github.com/mgfere/kinoa-rolls/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	cacheKeyMenu = "cache:menu"
	cacheTTLMenu = 60 * time.Second
)

// ProductoService define la logica de negocio del catalogo. El menu publico
// se sirve desde un cache corto en Redis; cualquier mutacion lo invalida.
type ProductoService interface {
	Menu(ctx context.Context) ([]dto.ProductoResponse, error)
	Crear(ctx context.Context, req dto.CrearProductoRequest, imagen []byte) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) ([]dto.ProductoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	ActualizarImagen(ctx context.Context, id uuid.UUID, imagen []byte) error
	ObtenerImagen(ctx context.Context, id uuid.UUID) ([]byte, error)
	CambiarDisponibilidad(ctx context.Context, id uuid.UUID, disponible bool) error
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type productoService struct {
	repo repository.ProductoRepository
	rdb  *redis.Client
}

func NewProductoService(repo repository.ProductoRepository, rdb *redis.Client) ProductoService {
	return &productoService{repo: repo, rdb: rdb}
}

// Menu devuelve los productos disponibles para el cliente. Cache-aside con
// TTL de 60s: si Redis falla se degrada a la consulta directa.
func (s *productoService) Menu(ctx context.Context) ([]dto.ProductoResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKeyMenu).Bytes(); err == nil {
			var resp []dto.ProductoResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				return resp, nil
			}
		}
	}

	productos, err := s.repo.ListDisponibles(ctx)
	if err != nil {
		return nil, apierror.Storage("no se pudo consultar el menu")
	}
	resp := productosToResponse(productos)

	if s.rdb != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, cacheKeyMenu, data, cacheTTLMenu).Err(); err != nil {
				log.Debug().Err(err).Msg("no se pudo cachear el menu")
			}
		}
	}
	return resp, nil
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest, imagen []byte) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		Nombre:            req.Nombre,
		Descripcion:       &req.Descripcion,
		Precio:            req.Precio,
		Imagen:            imagen,
		Disponible:        true,
		TiempoPreparacion: req.TiempoPreparacion,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apierror.Storage("no se pudo crear el producto")
	}
	s.invalidarMenu(ctx)
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("producto no encontrado")
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) ([]dto.ProductoResponse, error) {
	productos, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apierror.Storage("no se pudieron listar los productos")
	}
	return productosToResponse(productos), nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("producto no encontrado")
	}
	p.Nombre = req.Nombre
	p.Descripcion = &req.Descripcion
	p.Precio = req.Precio
	p.TiempoPreparacion = req.TiempoPreparacion
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apierror.Storage("no se pudo actualizar el producto")
	}
	s.invalidarMenu(ctx)
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) ActualizarImagen(ctx context.Context, id uuid.UUID, imagen []byte) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFound("producto no encontrado")
	}
	if err := s.repo.UpdateImagen(ctx, id, imagen); err != nil {
		return apierror.Storage("no se pudo guardar la imagen")
	}
	return nil
}

func (s *productoService) ObtenerImagen(ctx context.Context, id uuid.UUID) ([]byte, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("producto no encontrado")
	}
	if len(p.Imagen) == 0 {
		return nil, apierror.NotFound("el producto no tiene imagen")
	}
	return p.Imagen, nil
}

func (s *productoService) CambiarDisponibilidad(ctx context.Context, id uuid.UUID, disponible bool) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFound("producto no encontrado")
	}
	if err := s.repo.SetDisponible(ctx, id, disponible); err != nil {
		return apierror.Storage("no se pudo cambiar la disponibilidad")
	}
	s.invalidarMenu(ctx)
	return nil
}

// Eliminar borra el producto de forma definitiva. Para sacarlo del menu sin
// perder historial se prefiere CambiarDisponibilidad.
func (s *productoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFound("producto no encontrado")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apierror.Storage("no se pudo eliminar el producto")
	}
	s.invalidarMenu(ctx)
	return nil
}

func (s *productoService) invalidarMenu(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, cacheKeyMenu).Err(); err != nil {
		log.Debug().Err(err).Msg("no se pudo invalidar el cache del menu")
	}
}

func productoToResponse(p *model.Producto) dto.ProductoResponse {
	desc := ""
	if p.Descripcion != nil {
		desc = *p.Descripcion
	}
	return dto.ProductoResponse{
		ID:                p.ID.String(),
		Nombre:            p.Nombre,
		Descripcion:       desc,
		Precio:            p.Precio,
		Disponible:        p.Disponible,
		TiempoPreparacion: p.TiempoPreparacion,
		TieneImagen:       len(p.Imagen) > 0,
	}
}

func productosToResponse(productos []model.Producto) []dto.ProductoResponse {
	resp := make([]dto.ProductoResponse, len(productos))
	for i := range productos {
		resp[i] = productoToResponse(&productos[i])
	}
	return resp
}
