package repository

import (
	"context"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/model"

	"gorm.io/gorm"
)

type ConexionRepository interface {
	Create(ctx context.Context, c *model.Conexion) error
	DeleteBySessionID(ctx context.Context, sessionID string) error
	TouchActividad(ctx context.Context, sessionID string) error
	// DeleteStale removes rows whose ultima_actividad is older than the cutoff.
	// Returns the number of rows removed.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type conexionRepo struct{ db *gorm.DB }

func NewConexionRepository(db *gorm.DB) ConexionRepository { return &conexionRepo{db: db} }

func (r *conexionRepo) Create(ctx context.Context, c *model.Conexion) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *conexionRepo) DeleteBySessionID(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&model.Conexion{}).Error
}

func (r *conexionRepo) TouchActividad(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Model(&model.Conexion{}).
		Where("session_id = ?", sessionID).
		Update("ultima_actividad", time.Now().UTC()).Error
}

func (r *conexionRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("ultima_actividad < ?", cutoff).
		Delete(&model.Conexion{})
	return res.RowsAffected, res.Error
}
