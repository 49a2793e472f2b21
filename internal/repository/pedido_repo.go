package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrCodigoDuplicado signals a unique-constraint hit on codigo_pedido. The
// service retries with a fresh code before giving up.
var ErrCodigoDuplicado = errors.New("codigo de pedido duplicado")

type PedidoRepository interface {
	// Create persists the order together with its Detalles. Callers must pass
	// the transaction the rest of the operation runs in.
	Create(ctx context.Context, tx *gorm.DB, p *model.Pedido) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error)
	ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Pedido, error)
	List(ctx context.Context, filter dto.PedidoFilter) ([]model.Pedido, int64, error)
	UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado model.EstadoPedido) error

	CountAll(ctx context.Context) (int64, error)
	CountDesde(ctx context.Context, desde time.Time) (int64, error)
	CountPorEstado(ctx context.Context, estado model.EstadoPedido) (int64, error)

	DB() *gorm.DB
}

type pedidoRepo struct{ db *gorm.DB }

func NewPedidoRepository(db *gorm.DB) PedidoRepository { return &pedidoRepo{db: db} }

func (r *pedidoRepo) DB() *gorm.DB { return r.db }

func (r *pedidoRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Pedido) error {
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		if esViolacionUnicidad(err) {
			return ErrCodigoDuplicado
		}
		return err
	}
	return nil
}

// esViolacionUnicidad detects the postgres unique-violation without importing
// the driver here: gorm surfaces ErrDuplicatedKey for translated errors, and
// SQLSTATE 23505 appears in the message otherwise.
func esViolacionUnicidad(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "23505")
}

func (r *pedidoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error) {
	var p model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Detalles.Producto").Preload("Usuario").
		First(&p, id).Error
	return &p, err
}

func (r *pedidoRepo) ListByUsuario(ctx context.Context, usuarioID uuid.UUID) ([]model.Pedido, error) {
	var pedidos []model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Detalles.Producto").
		Where("usuario_id = ?", usuarioID).
		Order("created_at DESC").
		Find(&pedidos).Error
	return pedidos, err
}

func (r *pedidoRepo) List(ctx context.Context, filter dto.PedidoFilter) ([]model.Pedido, int64, error) {
	var pedidos []model.Pedido
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Pedido{})
	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Detalles.Producto").Preload("Usuario").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&pedidos).Error
	return pedidos, total, err
}

func (r *pedidoRepo) UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado model.EstadoPedido) error {
	return tx.Model(&model.Pedido{}).Where("id = ?", id).
		Update("estado", estado).Error
}

func (r *pedidoRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Pedido{}).Count(&n).Error
	return n, err
}

func (r *pedidoRepo) CountDesde(ctx context.Context, desde time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Pedido{}).
		Where("created_at >= ?", desde).Count(&n).Error
	return n, err
}

func (r *pedidoRepo) CountPorEstado(ctx context.Context, estado model.EstadoPedido) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Pedido{}).
		Where("estado = ?", estado).Count(&n).Error
	return n, err
}
