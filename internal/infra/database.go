package infra

import (
	"fmt"

	"github.com/mgfere/kinoa-rolls/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and runs AutoMigrate
// for the full schema. TranslateError is enabled so unique-constraint hits
// surface as gorm.ErrDuplicatedKey (the order-code retry path depends on it).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return db, nil
}

// RunMigrations applies the schema. NewDatabase runs it on every boot; the
// statements are idempotent.
func RunMigrations(db *gorm.DB) error {
	// gen_random_uuid() requires pgcrypto on Postgres < 13
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return err
	}
	return db.AutoMigrate(
		&model.Rol{},
		&model.Usuario{},
		&model.PerfilUsuario{},
		&model.Producto{},
		&model.Pedido{},
		&model.DetallePedido{},
		&model.Notificacion{},
		&model.Conexion{},
	)
}
