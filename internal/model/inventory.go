package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Movement kinds.
const (
	MovementIn         = "entrada"
	MovementOut        = "salida"
	MovementAdjustment = "ajuste"
)

// Alert kinds.
const (
	AlertLowStock         = "stock_bajo"
	AlertExpiry           = "caducidad"
	AlertSupplierDeadline = "fecha_limite_proveedor"
	AlertAdjustment       = "ajuste_requerido"
)

// RawMaterial (materia prima) is a stocked ingredient or supply.
type RawMaterial struct {
	ID                   uint64          `json:"id"`
	Nombre               string          `json:"nombre"`
	UnidadMedida         string          `json:"unidad_medida"`
	StockActual          decimal.Decimal `json:"stock_actual"`
	StockMinimo          decimal.Decimal `json:"stock_minimo"`
	Proveedor            *string         `json:"proveedor,omitempty"`
	FechaLimiteProveedor *string         `json:"fecha_limite_proveedor,omitempty"`
	IDUsuarioResponsable *uint64         `json:"id_usuario_responsable,omitempty"`
	Active
	CreatedAt            time.Time       `json:"fecha_creacion"`
	UpdatedAt            time.Time       `json:"fecha_actualizacion"`
}

// LowStock reports whether on-hand stock reached the minimum.
func (m RawMaterial) LowStock() bool {
	return m.StockActual.LessThanOrEqual(m.StockMinimo)
}

// Lot (lote) is a received batch of a raw material.
type Lot struct {
	ID             uint64          `json:"id"`
	IDMateriaPrima uint64          `json:"id_materia_prima"`
	CodigoLote     string          `json:"codigo_lote"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	FechaCaducidad *string         `json:"fecha_caducidad,omitempty"`
	Active
	CreatedAt      time.Time       `json:"fecha_creacion"`
}

// Movement is an immutable stock change.
type Movement struct {
	ID             uint64          `json:"id"`
	IDMateriaPrima uint64          `json:"id_materia_prima"`
	IDLote         *uint64         `json:"id_lote,omitempty"`
	Tipo           string          `json:"tipo"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	IDTipoAjuste   *uint64         `json:"id_tipo_ajuste,omitempty"`
	Descripcion    *string         `json:"descripcion,omitempty"`
	IDUsuario      uint64          `json:"id_usuario"`
	Fecha          time.Time       `json:"fecha"`
}

// Alert is an inventory notification addressed to one user.
type Alert struct {
	ID                    uint64     `json:"id"`
	IDMateriaPrima        uint64     `json:"id_materia_prima"`
	IDLote                *uint64    `json:"id_lote,omitempty"`
	Tipo                  string     `json:"tipo"`
	Mensaje               string     `json:"mensaje"`
	IDUsuarioDestinatario uint64     `json:"id_usuario_destinatario"`
	Leida                 bool       `json:"leida"`
	FechaCreacion         time.Time  `json:"fecha_creacion"`
	FechaLectura          *time.Time `json:"fecha_lectura,omitempty"`
}

// AlertFilter narrows alert listings.  Desde/Hasta are YYYY-MM-DD bounds on
// the creation date, both inclusive.
type AlertFilter struct {
	IDUsuario uint64
	Tipo      string
	Desde     string
	Hasta     string
	Leida     *bool
	Limit     int
	Offset    int
}

// AlertSummary counts alerts of one type for one recipient.
type AlertSummary struct {
	Tipo    string `json:"tipo"`
	Total   int    `json:"total"`
	NoLeida int    `json:"no_leidas"`
}
