package model

import (
	"time"

	"github.com/google/uuid"
)

// Role names. Authorization gating for admin-only endpoints keys off these.
const (
	RolCliente = "cliente"
	RolAdmin   = "admin"
)

// Rol is a lookup row (cliente | admin).
type Rol struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre string    `gorm:"type:varchar(50);uniqueIndex;not null"`
}

func (Rol) TableName() string { return "roles" }

// Usuario stores account holders. Customers and admins share the table;
// the role reference decides what they can reach.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Telefono     string    `gorm:"type:varchar(20);not null"`
	Activo       bool      `gorm:"not null;default:true"`
	RolID        uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Rol    *Rol           `gorm:"foreignKey:RolID"`
	Perfil *PerfilUsuario `gorm:"foreignKey:UsuarioID"`
}

func (Usuario) TableName() string { return "usuarios" }

// EsAdmin reports whether the loaded role is the admin role.
// Requires Rol to be preloaded; a bare Usuario is never an admin.
func (u *Usuario) EsAdmin() bool {
	return u.Rol != nil && u.Rol.Nombre == RolAdmin
}

// PerfilUsuario is the optional 1-1 profile. Address fields double as the
// delivery address and are refreshed opportunistically on order creation.
type PerfilUsuario struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	Nombre     string    `gorm:"type:varchar(100)"`
	ApellidoP  string    `gorm:"type:varchar(100)"`
	ApellidoM  *string   `gorm:"type:varchar(100)"`
	Email      *string   `gorm:"type:varchar(100);uniqueIndex"`
	Colonia    *string
	Calle      *string
	NoExterior *string
	FotoPerfil []byte `gorm:"type:bytea"`
	UpdatedAt  time.Time
}

func (PerfilUsuario) TableName() string { return "perfiles_usuarios" }
