package repository

import (
	"context"

	"github.com/mgfere/kinoa-rolls/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsuarioRepository defines the data access contract for accounts, roles and
// profiles. Services depend on this interface, not on the concrete GORM
// implementation, enabling clean unit testing via stubs.
type UsuarioRepository interface {
	Create(ctx context.Context, tx *gorm.DB, u *model.Usuario) error
	FindByUsername(ctx context.Context, username string) (*model.Usuario, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error)
	List(ctx context.Context) ([]model.Usuario, error)
	ListAdmins(ctx context.Context) ([]model.Usuario, error)
	SetActivo(ctx context.Context, id uuid.UUID, activo bool) error
	Count(ctx context.Context) (int64, error)

	FindRolPorNombre(ctx context.Context, nombre string) (*model.Rol, error)
	EnsureRol(ctx context.Context, nombre string) (*model.Rol, error)

	CreatePerfil(ctx context.Context, tx *gorm.DB, p *model.PerfilUsuario) error
	FindPerfil(ctx context.Context, usuarioID uuid.UUID) (*model.PerfilUsuario, error)
	FindPerfilPorEmail(ctx context.Context, email string) (*model.PerfilUsuario, error)
	UpdatePerfilTx(tx *gorm.DB, p *model.PerfilUsuario) error
	UpdatePerfil(ctx context.Context, p *model.PerfilUsuario) error
	UpdateTelefonoTx(tx *gorm.DB, usuarioID uuid.UUID, telefono string) error
	UpdatePasswordHash(ctx context.Context, usuarioID uuid.UUID, hash string) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) DB() *gorm.DB { return r.db }

func (r *usuarioRepo) Create(ctx context.Context, tx *gorm.DB, u *model.Usuario) error {
	return tx.WithContext(ctx).Create(u).Error
}

func (r *usuarioRepo) FindByUsername(ctx context.Context, username string) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Preload("Rol").
		Where("username = ?", username).First(&u).Error
	return &u, err
}

func (r *usuarioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Preload("Rol").First(&u, id).Error
	return &u, err
}

func (r *usuarioRepo) List(ctx context.Context) ([]model.Usuario, error) {
	var users []model.Usuario
	err := r.db.WithContext(ctx).Preload("Rol").
		Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *usuarioRepo) ListAdmins(ctx context.Context) ([]model.Usuario, error) {
	var users []model.Usuario
	err := r.db.WithContext(ctx).
		Joins("JOIN roles ON roles.id = usuarios.rol_id").
		Where("roles.nombre = ? AND usuarios.activo = true", model.RolAdmin).
		Find(&users).Error
	return users, err
}

func (r *usuarioRepo) SetActivo(ctx context.Context, id uuid.UUID, activo bool) error {
	return r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("id = ?", id).Update("activo", activo).Error
}

func (r *usuarioRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("activo = true").Count(&n).Error
	return n, err
}

func (r *usuarioRepo) FindRolPorNombre(ctx context.Context, nombre string) (*model.Rol, error) {
	var rol model.Rol
	err := r.db.WithContext(ctx).Where("nombre = ?", nombre).First(&rol).Error
	return &rol, err
}

// EnsureRol returns the role, creating it when the lookup table has not been
// seeded yet.
func (r *usuarioRepo) EnsureRol(ctx context.Context, nombre string) (*model.Rol, error) {
	rol, err := r.FindRolPorNombre(ctx, nombre)
	if err == nil {
		return rol, nil
	}
	nuevo := &model.Rol{Nombre: nombre}
	if err := r.db.WithContext(ctx).Create(nuevo).Error; err != nil {
		return nil, err
	}
	return nuevo, nil
}

func (r *usuarioRepo) CreatePerfil(ctx context.Context, tx *gorm.DB, p *model.PerfilUsuario) error {
	return tx.WithContext(ctx).Create(p).Error
}

func (r *usuarioRepo) FindPerfil(ctx context.Context, usuarioID uuid.UUID) (*model.PerfilUsuario, error) {
	var p model.PerfilUsuario
	err := r.db.WithContext(ctx).Where("usuario_id = ?", usuarioID).First(&p).Error
	return &p, err
}

func (r *usuarioRepo) FindPerfilPorEmail(ctx context.Context, email string) (*model.PerfilUsuario, error) {
	var p model.PerfilUsuario
	err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&p).Error
	return &p, err
}

func (r *usuarioRepo) UpdatePerfilTx(tx *gorm.DB, p *model.PerfilUsuario) error {
	return tx.Save(p).Error
}

func (r *usuarioRepo) UpdatePerfil(ctx context.Context, p *model.PerfilUsuario) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *usuarioRepo) UpdateTelefonoTx(tx *gorm.DB, usuarioID uuid.UUID, telefono string) error {
	return tx.Model(&model.Usuario{}).Where("id = ?", usuarioID).
		Update("telefono", telefono).Error
}

func (r *usuarioRepo) UpdatePasswordHash(ctx context.Context, usuarioID uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("id = ?", usuarioID).Update("password_hash", hash).Error
}
