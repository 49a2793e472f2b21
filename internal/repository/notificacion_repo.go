package repository

import (
	"context"

	"github.com/mgfere/kinoa-rolls/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificacionRepository interface {
	// CreateTx writes the row inside the caller's transaction so the state
	// change and its notification commit or roll back together.
	CreateTx(tx *gorm.DB, n *model.Notificacion) error
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID, limit int) ([]model.Notificacion, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Notificacion, error)
	MarcarLeida(ctx context.Context, id uuid.UUID) error
	CountNoLeidas(ctx context.Context, usuarioID uuid.UUID) (int64, error)
}

type notificacionRepo struct{ db *gorm.DB }

func NewNotificacionRepository(db *gorm.DB) NotificacionRepository {
	return &notificacionRepo{db: db}
}

func (r *notificacionRepo) CreateTx(tx *gorm.DB, n *model.Notificacion) error {
	return tx.Create(n).Error
}

func (r *notificacionRepo) ListByUsuario(ctx context.Context, usuarioID uuid.UUID, limit int) ([]model.Notificacion, error) {
	var notis []model.Notificacion
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notis).Error
	return notis, err
}

func (r *notificacionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Notificacion, error) {
	var n model.Notificacion
	err := r.db.WithContext(ctx).First(&n, id).Error
	return &n, err
}

func (r *notificacionRepo) MarcarLeida(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Notificacion{}).
		Where("id = ?", id).Update("leida", true).Error
}

func (r *notificacionRepo) CountNoLeidas(ctx context.Context, usuarioID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Notificacion{}).
		Where("usuario_id = ? AND leida = false", usuarioID).Count(&n).Error
	return n, err
}
