package service

import (
	"context"

	"github.com/mgfere/kinoa-rolls/internal/apierror"
	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PerfilService maneja el perfil 1-1 del usuario autenticado. El telefono
// vive en la cuenta y el resto en perfiles_usuarios, asi que la
// actualizacion toca ambas tablas en una sola transaccion.
type PerfilService interface {
	Obtener(ctx context.Context, usuarioID uuid.UUID) (*dto.PerfilResponse, error)
	Actualizar(ctx context.Context, usuarioID uuid.UUID, req dto.ActualizarPerfilRequest) (*dto.PerfilResponse, error)
	ActualizarFoto(ctx context.Context, usuarioID uuid.UUID, foto []byte) error
	ObtenerFoto(ctx context.Context, usuarioID uuid.UUID) ([]byte, error)
}

type perfilService struct {
	repo repository.UsuarioRepository
}

func NewPerfilService(repo repository.UsuarioRepository) PerfilService {
	return &perfilService{repo: repo}
}

func (s *perfilService) Obtener(ctx context.Context, usuarioID uuid.UUID) (*dto.PerfilResponse, error) {
	user, err := s.repo.FindByID(ctx, usuarioID)
	if err != nil {
		return nil, apierror.NotFound("usuario no encontrado")
	}
	perfil, err := s.repo.FindPerfil(ctx, usuarioID)
	if err != nil {
		return nil, apierror.NotFound("perfil no encontrado")
	}

	resp := &dto.PerfilResponse{
		Username:  user.Username,
		Telefono:  user.Telefono,
		Nombre:    perfil.Nombre,
		ApellidoP: perfil.ApellidoP,
	}
	if perfil.ApellidoM != nil {
		resp.ApellidoM = *perfil.ApellidoM
	}
	if perfil.Email != nil {
		resp.Email = *perfil.Email
	}
	if perfil.Colonia != nil {
		resp.Colonia = *perfil.Colonia
	}
	if perfil.Calle != nil {
		resp.Calle = *perfil.Calle
	}
	if perfil.NoExterior != nil {
		resp.NoExterior = *perfil.NoExterior
	}
	return resp, nil
}

func (s *perfilService) Actualizar(ctx context.Context, usuarioID uuid.UUID, req dto.ActualizarPerfilRequest) (*dto.PerfilResponse, error) {
	perfil, err := s.repo.FindPerfil(ctx, usuarioID)
	if err != nil {
		return nil, apierror.NotFound("perfil no encontrado")
	}

	// Un correo solo puede pertenecer a un perfil.
	if req.Email != "" {
		if existente, err := s.repo.FindPerfilPorEmail(ctx, req.Email); err == nil && existente.UsuarioID != usuarioID {
			return nil, apierror.Conflict("el correo ya esta en uso")
		}
	}

	perfil.Nombre = req.Nombre
	perfil.ApellidoP = req.ApellidoP
	perfil.ApellidoM = optStr(req.ApellidoM)
	perfil.Email = optStr(req.Email)
	perfil.Colonia = optStr(req.Colonia)
	perfil.Calle = optStr(req.Calle)
	perfil.NoExterior = optStr(req.NoExterior)

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdatePerfilTx(tx, perfil); err != nil {
			return err
		}
		return s.repo.UpdateTelefonoTx(tx, usuarioID, req.Telefono)
	})
	if txErr != nil {
		return nil, apierror.Storage("no se pudo actualizar el perfil")
	}
	return s.Obtener(ctx, usuarioID)
}

func (s *perfilService) ActualizarFoto(ctx context.Context, usuarioID uuid.UUID, foto []byte) error {
	perfil, err := s.repo.FindPerfil(ctx, usuarioID)
	if err != nil {
		return apierror.NotFound("perfil no encontrado")
	}
	perfil.FotoPerfil = foto
	if err := s.repo.UpdatePerfil(ctx, perfil); err != nil {
		return apierror.Storage("no se pudo guardar la foto")
	}
	return nil
}

func (s *perfilService) ObtenerFoto(ctx context.Context, usuarioID uuid.UUID) ([]byte, error) {
	perfil, err := s.repo.FindPerfil(ctx, usuarioID)
	if err != nil {
		return nil, apierror.NotFound("perfil no encontrado")
	}
	if len(perfil.FotoPerfil) == 0 {
		return nil, apierror.NotFound("el perfil no tiene foto")
	}
	return perfil.FotoPerfil, nil
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
