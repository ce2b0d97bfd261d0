package model

import "time"

// AuditRecord is an append-only trace of a mutating request.
type AuditRecord struct {
	ID        uint64    `json:"id"`
	IDUsuario *uint64   `json:"id_usuario,omitempty"`
	Metodo    string    `json:"metodo"`
	Ruta      string    `json:"ruta"`
	Datos     *string   `json:"datos,omitempty"`
	Fecha     time.Time `json:"fecha"`
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	IDUsuario *uint64
	Metodo    string
	Desde     string
	Hasta     string
	Limit     int
	Offset    int
}
