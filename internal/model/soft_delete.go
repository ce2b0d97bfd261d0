package model

// SoftDeletable is implemented by every entity that is retired by flipping
// its activo flag instead of being removed.
type SoftDeletable interface {
	IsActive() bool
}

// Active is embedded in soft-deletable entities.  Lookups by id return the
// row whatever its flag; list queries filter on activo = 1.
type Active struct {
	Activo bool `json:"activo"`
}

// IsActive reports whether the row is visible in active listings.
func (a Active) IsActive() bool { return a.Activo }
