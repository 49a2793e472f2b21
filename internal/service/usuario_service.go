package service

import (
	"context"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/repository"

	"github.com/google/uuid"
)

// UsuarioService cubre la administracion de cuentas (solo admin).
type UsuarioService interface {
	Listar(ctx context.Context) ([]dto.UsuarioAdminResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error
}

type usuarioService struct {
	repo repository.UsuarioRepository
}

func NewUsuarioService(repo repository.UsuarioRepository) UsuarioService {
	return &usuarioService{repo: repo}
}

func (s *usuarioService) Listar(ctx context.Context) ([]dto.UsuarioAdminResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apierror.Storage("no se pudieron listar los usuarios")
	}
	resp := make([]dto.UsuarioAdminResponse, len(users))
	for i, u := range users {
		rol := ""
		if u.Rol != nil {
			rol = u.Rol.Nombre
		}
		resp[i] = dto.UsuarioAdminResponse{
			ID:            u.ID.String(),
			Username:      u.Username,
			Telefono:      u.Telefono,
			Rol:           rol,
			Activo:        u.Activo,
			FechaRegistro: u.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return resp, nil
}

func (s *usuarioService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFound("usuario no encontrado")
	}
	return s.repo.SetActivo(ctx, id, false)
}

func (s *usuarioService) Reactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFound("usuario no encontrado")
	}
	return s.repo.SetActivo(ctx, id, true)
}
