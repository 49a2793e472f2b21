package dto

type ActualizarPerfilRequest struct {
	Nombre     string `json:"nombre"      validate:"required,max=100"`
	ApellidoP  string `json:"apellido_p"  validate:"required,max=100"`
	ApellidoM  string `json:"apellido_m"  validate:"max=100"`
	Email      string `json:"email"       validate:"omitempty,email"`
	Telefono   string `json:"telefono"    validate:"required,min=7,max=20"`
	Colonia    string `json:"colonia"`
	Calle      string `json:"calle"`
	NoExterior string `json:"no_exterior"`
}

type PerfilResponse struct {
	Username   string `json:"username"`
	Nombre     string `json:"nombre"`
	ApellidoP  string `json:"apellido_p"`
	ApellidoM  string `json:"apellido_m"`
	Email      string `json:"email"`
	Telefono   string `json:"telefono"`
	Colonia    string `json:"colonia"`
	Calle      string `json:"calle"`
	NoExterior string `json:"no_exterior"`
}

// UsuarioAdminResponse is the admin user-list row.
type UsuarioAdminResponse struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Telefono      string `json:"telefono"`
	Rol           string `json:"rol"`
	Activo        bool   `json:"activo"`
	FechaRegistro string `json:"fecha_registro"`
}
