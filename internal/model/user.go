package model

import "time"

// Roles stored in usuarios.rol and carried in the JWT role claim.
const (
	RoleAdmin   = "admin"
	RoleCliente = "cliente"
)

// User represents an application user record as stored in the
// `usuarios` table.  PasswordHash never leaves the server.
type User struct {
	ID           uint64    `json:"id"`
	Nombre       string    `json:"nombre"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Telefono     *string   `json:"telefono,omitempty"`
	Rol          string    `json:"rol"`
	Active
	CreatedAt    time.Time `json:"fecha_creacion"`
	UpdatedAt    time.Time `json:"fecha_actualizacion"`
}
