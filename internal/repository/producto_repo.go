package repository

import (
	"context"

	"github.com/mgfere/kinoa-rolls/internal/dto"
	"github.com/mgfere/kinoa-rolls/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Producto, error)
	ListDisponibles(ctx context.Context) ([]model.Producto, error)
	List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, error)
	Update(ctx context.Context, p *model.Producto) error
	SetDisponible(ctx context.Context, id uuid.UUID, disponible bool) error
	// Delete is a hard delete — the availability flag is the normal path.
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateImagen(ctx context.Context, id uuid.UUID, imagen []byte) error
	CountDisponibles(ctx context.Context) (int64, error)
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productoRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&productos).Error
	return productos, err
}

func (r *productoRepo) ListDisponibles(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).Where("disponible = true").
		Order("nombre ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, error) {
	q := r.db.WithContext(ctx).Model(&model.Producto{})

	switch filter.Disponible {
	case "true":
		q = q.Where("disponible = true")
	case "false":
		q = q.Where("disponible = false")
	}
	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}

	var productos []model.Producto
	err := q.Order("nombre ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productoRepo) SetDisponible(ctx context.Context, id uuid.UUID, disponible bool) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("id = ?", id).Update("disponible", disponible).Error
}

func (r *productoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Producto{}, id).Error
}

func (r *productoRepo) UpdateImagen(ctx context.Context, id uuid.UUID, imagen []byte) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("id = ?", id).Update("imagen", imagen).Error
}

func (r *productoRepo) CountDisponibles(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("disponible = true").Count(&n).Error
	return n, err
}
