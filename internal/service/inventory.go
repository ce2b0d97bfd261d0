package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/queue"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
	"github.com/iliyamo/party-venue-reservation/internal/schedule"
)

// ExpiryWarningDays is how close a lot's expiry must be to raise an alert.
const ExpiryWarningDays = 7

// Inventory manages raw materials, lots and movements and raises alerts.
type Inventory struct {
	materials   *repository.CatalogStore[model.RawMaterial]
	adjustments *repository.CatalogStore[model.AdjustmentType]
	repo        *repository.InventoryRepo
	alerts      *repository.AlertRepo
	events      EventPublisher
	now         func() time.Time
}

func NewInventory(materials *repository.CatalogStore[model.RawMaterial], adjustments *repository.CatalogStore[model.AdjustmentType],
	repo *repository.InventoryRepo, alerts *repository.AlertRepo, events EventPublisher) *Inventory {
	return &Inventory{materials: materials, adjustments: adjustments, repo: repo, alerts: alerts, events: events, now: time.Now}
}

func validateMaterial(m *model.RawMaterial) error {
	m.Nombre = strings.TrimSpace(m.Nombre)
	if m.Nombre == "" || strings.TrimSpace(m.UnidadMedida) == "" {
		return fmt.Errorf("%w: nombre y unidad_medida son obligatorios", ErrInvalidInput)
	}
	if m.StockActual.IsNegative() || m.StockMinimo.IsNegative() {
		return fmt.Errorf("%w: el stock no puede ser negativo", ErrInvalidInput)
	}
	if m.FechaLimiteProveedor != nil && *m.FechaLimiteProveedor != "" {
		if _, err := schedule.ParseDate(*m.FechaLimiteProveedor); err != nil {
			return fmt.Errorf("%w: fecha_limite_proveedor: %v", ErrInvalidInput, err)
		}
	} else {
		m.FechaLimiteProveedor = nil
	}
	return nil
}

// CreateMaterial stores a raw material.  When it starts at or below its
// minimum exactly one stock_bajo alert is raised in the same transaction.
func (s *Inventory) CreateMaterial(ctx context.Context, actor Actor, m model.RawMaterial) (model.RawMaterial, error) {
	if err := validateMaterial(&m); err != nil {
		return model.RawMaterial{}, err
	}
	return s.saveMaterial(ctx, actor, func(tx *sql.Tx) (model.RawMaterial, error) {
		return s.materials.CreateTx(ctx, tx, &m)
	})
}

// UpdateMaterial edits a raw material, raising one stock_bajo alert when
// the edited stock is at or below the minimum.
func (s *Inventory) UpdateMaterial(ctx context.Context, actor Actor, id uint64, m model.RawMaterial) (model.RawMaterial, error) {
	if err := validateMaterial(&m); err != nil {
		return model.RawMaterial{}, err
	}
	return s.saveMaterial(ctx, actor, func(tx *sql.Tx) (model.RawMaterial, error) {
		return s.materials.UpdateTx(ctx, tx, id, &m)
	})
}

// saveMaterial runs write and the low-stock check in one transaction.
func (s *Inventory) saveMaterial(ctx context.Context, actor Actor, write func(*sql.Tx) (model.RawMaterial, error)) (model.RawMaterial, error) {
	tx, err := s.materials.DB().BeginTx(ctx, nil)
	if err != nil {
		return model.RawMaterial{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	m, err := write(tx)
	if err != nil {
		return model.RawMaterial{}, err
	}
	var alert *model.Alert
	if m.LowStock() {
		a, err := s.lowStockAlert(ctx, tx, actor, m)
		if err != nil {
			return model.RawMaterial{}, err
		}
		alert = &a
	}
	if err := tx.Commit(); err != nil {
		return model.RawMaterial{}, err
	}
	committed = true
	if alert != nil {
		s.announce(*alert)
	}
	return m, nil
}

func (s *Inventory) lowStockAlert(ctx context.Context, q repository.DBTX, actor Actor, m model.RawMaterial) (model.Alert, error) {
	a := model.Alert{
		IDMateriaPrima:        m.ID,
		Tipo:                  model.AlertLowStock,
		Mensaje:               fmt.Sprintf("Stock bajo de %s: %s %s (mínimo %s)", m.Nombre, m.StockActual.String(), m.UnidadMedida, m.StockMinimo.String()),
		IDUsuarioDestinatario: recipient(m.IDUsuarioResponsable, actor.ID),
		FechaCreacion:         s.now().UTC().Truncate(time.Second),
	}
	return a, s.alerts.CreateTx(ctx, q, &a)
}

func recipient(responsable *uint64, fallback uint64) uint64 {
	if responsable != nil && *responsable != 0 {
		return *responsable
	}
	return fallback
}

// MovementInput is a stock change request.  Cantidad is positive for
// entrada and salida; an ajuste may be signed.
type MovementInput struct {
	IDMateriaPrima uint64
	IDLote         *uint64
	Tipo           string
	Cantidad       decimal.Decimal
	IDTipoAjuste   *uint64
	Descripcion    *string
}

// RecordMovement applies a movement and its stock delta atomically.  When
// id_lote is given the lot is locked and carries the same delta.  A
// movement that would leave the material or the lot negative fails with
// ErrInsufficientStock.
func (s *Inventory) RecordMovement(ctx context.Context, actor Actor, in MovementInput) (model.Movement, model.RawMaterial, error) {
	var delta decimal.Decimal
	switch in.Tipo {
	case model.MovementIn:
		delta = in.Cantidad
	case model.MovementOut:
		delta = in.Cantidad.Neg()
	case model.MovementAdjustment:
		delta = in.Cantidad
	default:
		return model.Movement{}, model.RawMaterial{}, fmt.Errorf("%w: tipo %q", ErrInvalidInput, in.Tipo)
	}
	if in.Tipo != model.MovementAdjustment && !in.Cantidad.IsPositive() {
		return model.Movement{}, model.RawMaterial{}, fmt.Errorf("%w: cantidad debe ser positiva", ErrInvalidInput)
	}
	if in.Cantidad.IsZero() {
		return model.Movement{}, model.RawMaterial{}, fmt.Errorf("%w: cantidad no puede ser cero", ErrInvalidInput)
	}

	tx, err := s.repo.DB().BeginTx(ctx, nil)
	if err != nil {
		return model.Movement{}, model.RawMaterial{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	mat, err := s.materials.GetForUpdateTx(ctx, tx, in.IDMateriaPrima)
	if err != nil {
		return model.Movement{}, model.RawMaterial{}, referenceErr(err, "materia_prima", in.IDMateriaPrima)
	}
	if !mat.IsActive() {
		return model.Movement{}, model.RawMaterial{}, fmt.Errorf("%w: materia_prima %d", ErrInvalidReference, mat.ID)
	}
	if in.IDTipoAjuste != nil {
		if _, err := s.adjustments.GetActiveTx(ctx, tx, *in.IDTipoAjuste); err != nil {
			return model.Movement{}, model.RawMaterial{}, referenceErr(err, "tipo_ajuste", *in.IDTipoAjuste)
		}
	}
	if in.IDLote != nil {
		lot, err := s.repo.GetLotForUpdateTx(ctx, tx, *in.IDLote)
		if err != nil {
			return model.Movement{}, model.RawMaterial{}, referenceErr(err, "lote", *in.IDLote)
		}
		if lot.IDMateriaPrima != mat.ID {
			return model.Movement{}, model.RawMaterial{}, fmt.Errorf("%w: el lote no pertenece a la materia prima", ErrInvalidInput)
		}
		if lot.Cantidad.Add(delta).IsNegative() {
			return model.Movement{}, model.RawMaterial{}, fmt.Errorf("%w: el lote %s tiene %s", ErrInsufficientStock, lot.CodigoLote, lot.Cantidad.String())
		}
	}
	if mat.StockActual.Add(delta).IsNegative() {
		return model.Movement{}, model.RawMaterial{}, ErrInsufficientStock
	}
	if err := s.repo.AddStockTx(ctx, tx, mat.ID, delta); err != nil {
		return model.Movement{}, model.RawMaterial{}, err
	}
	mv := model.Movement{
		IDMateriaPrima: mat.ID,
		IDLote:         in.IDLote,
		Tipo:           in.Tipo,
		Cantidad:       in.Cantidad,
		IDTipoAjuste:   in.IDTipoAjuste,
		Descripcion:    in.Descripcion,
		IDUsuario:      actor.ID,
		Fecha:          s.now().UTC().Truncate(time.Second),
	}
	if err := s.repo.CreateMovementTx(ctx, tx, &mv); err != nil {
		return model.Movement{}, model.RawMaterial{}, err
	}
	if in.IDLote != nil {
		if err := s.repo.AddLotQtyTx(ctx, tx, *in.IDLote, delta); err != nil {
			return model.Movement{}, model.RawMaterial{}, err
		}
	}
	mat.StockActual = mat.StockActual.Add(delta)

	var alert *model.Alert
	if mat.LowStock() {
		a, err := s.lowStockAlert(ctx, tx, actor, mat)
		if err != nil {
			return model.Movement{}, model.RawMaterial{}, err
		}
		alert = &a
	}
	if err := tx.Commit(); err != nil {
		return model.Movement{}, model.RawMaterial{}, err
	}
	committed = true
	if alert != nil {
		s.announce(*alert)
	}
	return mv, mat, nil
}

// ListMovements returns movements, newest first.
func (s *Inventory) ListMovements(ctx context.Context, materialID *uint64, limit, offset int) ([]model.Movement, error) {
	return s.repo.ListMovements(ctx, materialID, limit, offset)
}

// CreateLot registers a received lot.  A positive quantity is booked as an
// entrada movement; an expiry within ExpiryWarningDays raises a caducidad
// alert.
func (s *Inventory) CreateLot(ctx context.Context, actor Actor, lot model.Lot) (model.Lot, error) {
	lot.CodigoLote = strings.TrimSpace(lot.CodigoLote)
	if lot.CodigoLote == "" {
		return model.Lot{}, fmt.Errorf("%w: codigo_lote es obligatorio", ErrInvalidInput)
	}
	if lot.Cantidad.IsNegative() {
		return model.Lot{}, fmt.Errorf("%w: cantidad no puede ser negativa", ErrInvalidInput)
	}
	var expiry time.Time
	if lot.FechaCaducidad != nil && *lot.FechaCaducidad != "" {
		t, err := schedule.ParseDate(*lot.FechaCaducidad)
		if err != nil {
			return model.Lot{}, fmt.Errorf("%w: fecha_caducidad: %v", ErrInvalidInput, err)
		}
		expiry = t
	} else {
		lot.FechaCaducidad = nil
	}

	tx, err := s.repo.DB().BeginTx(ctx, nil)
	if err != nil {
		return model.Lot{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	mat, err := s.materials.GetForUpdateTx(ctx, tx, lot.IDMateriaPrima)
	if err != nil {
		return model.Lot{}, referenceErr(err, "materia_prima", lot.IDMateriaPrima)
	}
	if !mat.IsActive() {
		return model.Lot{}, fmt.Errorf("%w: materia_prima %d", ErrInvalidReference, mat.ID)
	}
	if err := s.repo.CreateLotTx(ctx, tx, &lot); err != nil {
		return model.Lot{}, err
	}
	if lot.Cantidad.IsPositive() {
		if err := s.repo.AddStockTx(ctx, tx, mat.ID, lot.Cantidad); err != nil {
			return model.Lot{}, err
		}
		desc := "Entrada de lote " + lot.CodigoLote
		lotID := lot.ID
		mv := model.Movement{
			IDMateriaPrima: mat.ID,
			IDLote:         &lotID,
			Tipo:           model.MovementIn,
			Cantidad:       lot.Cantidad,
			Descripcion:    &desc,
			IDUsuario:      actor.ID,
			Fecha:          s.now().UTC().Truncate(time.Second),
		}
		if err := s.repo.CreateMovementTx(ctx, tx, &mv); err != nil {
			return model.Lot{}, err
		}
	}
	var alert *model.Alert
	today := s.now().Truncate(24 * time.Hour)
	if !expiry.IsZero() && !expiry.After(today.AddDate(0, 0, ExpiryWarningDays)) {
		lotID := lot.ID
		a := model.Alert{
			IDMateriaPrima:        mat.ID,
			IDLote:                &lotID,
			Tipo:                  model.AlertExpiry,
			Mensaje:               fmt.Sprintf("El lote %s de %s caduca el %s", lot.CodigoLote, mat.Nombre, *lot.FechaCaducidad),
			IDUsuarioDestinatario: recipient(mat.IDUsuarioResponsable, actor.ID),
			FechaCreacion:         s.now().UTC().Truncate(time.Second),
		}
		if err := s.alerts.CreateTx(ctx, tx, &a); err != nil {
			return model.Lot{}, err
		}
		alert = &a
	}
	if err := tx.Commit(); err != nil {
		return model.Lot{}, err
	}
	committed = true
	if alert != nil {
		s.announce(*alert)
	}
	return lot, nil
}

// ListLots returns lots, soonest expiry first.
func (s *Inventory) ListLots(ctx context.Context, materialID *uint64, includeInactive bool) ([]model.Lot, error) {
	return s.repo.ListLots(ctx, materialID, includeInactive)
}

// GetLot returns a lot by id, active or not.
func (s *Inventory) GetLot(ctx context.Context, id uint64) (model.Lot, error) {
	return s.repo.GetLot(ctx, id)
}

// DeleteLot retires a lot.
func (s *Inventory) DeleteLot(ctx context.Context, id uint64) error {
	return s.repo.SoftDeleteLot(ctx, id)
}

// AlertInput is a manually raised alert.
type AlertInput struct {
	IDMateriaPrima        uint64
	IDLote                *uint64
	Tipo                  string
	Mensaje               string
	IDUsuarioDestinatario *uint64
}

// RaiseAlert stores a manual alert, addressed to the given user or the
// material's responsable, falling back to the actor.
func (s *Inventory) RaiseAlert(ctx context.Context, actor Actor, in AlertInput) (model.Alert, error) {
	switch in.Tipo {
	case model.AlertLowStock, model.AlertExpiry, model.AlertSupplierDeadline, model.AlertAdjustment:
	default:
		return model.Alert{}, fmt.Errorf("%w: tipo %q", ErrInvalidInput, in.Tipo)
	}
	if strings.TrimSpace(in.Mensaje) == "" {
		return model.Alert{}, fmt.Errorf("%w: mensaje es obligatorio", ErrInvalidInput)
	}
	mat, err := s.materials.Get(ctx, in.IDMateriaPrima)
	if err != nil {
		return model.Alert{}, referenceErr(err, "materia_prima", in.IDMateriaPrima)
	}
	to := recipient(mat.IDUsuarioResponsable, actor.ID)
	if in.IDUsuarioDestinatario != nil && *in.IDUsuarioDestinatario != 0 {
		to = *in.IDUsuarioDestinatario
	}
	a := model.Alert{
		IDMateriaPrima:        mat.ID,
		IDLote:                in.IDLote,
		Tipo:                  in.Tipo,
		Mensaje:               strings.TrimSpace(in.Mensaje),
		IDUsuarioDestinatario: to,
		FechaCreacion:         s.now().UTC().Truncate(time.Second),
	}
	if err := s.alerts.Create(ctx, &a); err != nil {
		return model.Alert{}, err
	}
	s.announce(a)
	return a, nil
}

// ListAlerts returns the recipient's alerts.  Admins may read another
// user's alerts by setting f.IDUsuario; clients always read their own.
func (s *Inventory) ListAlerts(ctx context.Context, actor Actor, f model.AlertFilter) ([]model.Alert, error) {
	if !actor.IsAdmin() || f.IDUsuario == 0 {
		f.IDUsuario = actor.ID
	}
	for _, d := range []string{f.Desde, f.Hasta} {
		if d == "" {
			continue
		}
		if _, err := schedule.ParseDate(d); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return s.alerts.List(ctx, f)
}

// MarkAlertsRead marks the actor's alerts read; empty ids means all.
func (s *Inventory) MarkAlertsRead(ctx context.Context, actor Actor, ids []uint64) (int64, error) {
	return s.alerts.MarkRead(ctx, actor.ID, ids)
}

// AlertSummary counts the actor's alerts per type.
func (s *Inventory) AlertSummary(ctx context.Context, actor Actor) ([]model.AlertSummary, error) {
	return s.alerts.Summary(ctx, actor.ID)
}

// SweepExpiringLots raises one caducidad alert per lot expiring within
// ExpiryWarningDays that has no unread alert yet.
func (s *Inventory) SweepExpiringLots(ctx context.Context) (int, error) {
	cands, err := s.repo.LotsExpiringWithin(ctx, ExpiryWarningDays)
	if err != nil {
		return 0, err
	}
	return s.raiseFor(ctx, cands, model.AlertExpiry, func(c repository.AlertCandidate) string {
		return fmt.Sprintf("El lote %s de %s caduca el %s", c.Detalle, c.Nombre, c.Fecha)
	})
}

// SweepSupplierDeadlines raises one fecha_limite_proveedor alert per
// material whose supplier deadline is within ExpiryWarningDays.
func (s *Inventory) SweepSupplierDeadlines(ctx context.Context) (int, error) {
	cands, err := s.repo.SupplierDeadlinesWithin(ctx, ExpiryWarningDays)
	if err != nil {
		return 0, err
	}
	return s.raiseFor(ctx, cands, model.AlertSupplierDeadline, func(c repository.AlertCandidate) string {
		if c.Detalle == "" {
			return fmt.Sprintf("La fecha límite de pedido de %s es el %s", c.Nombre, c.Fecha)
		}
		return fmt.Sprintf("La fecha límite de pedido de %s a %s es el %s", c.Nombre, c.Detalle, c.Fecha)
	})
}

func (s *Inventory) raiseFor(ctx context.Context, cands []repository.AlertCandidate, tipo string, msg func(repository.AlertCandidate) string) (int, error) {
	n := 0
	for _, c := range cands {
		if c.Responsable == nil {
			slog.Warn("alert has no recipient", "tipo", tipo, "id_materia_prima", c.MaterialID)
			continue
		}
		a := model.Alert{
			IDMateriaPrima:        c.MaterialID,
			IDLote:                c.LotID,
			Tipo:                  tipo,
			Mensaje:               msg(c),
			IDUsuarioDestinatario: *c.Responsable,
			FechaCreacion:         s.now().UTC().Truncate(time.Second),
		}
		if err := s.alerts.Create(ctx, &a); err != nil {
			return n, err
		}
		s.announce(a)
		n++
	}
	return n, nil
}

func (s *Inventory) announce(a model.Alert) {
	ev := queue.AlertEvent{
		IDAlerta:              a.ID,
		Tipo:                  a.Tipo,
		Mensaje:               a.Mensaje,
		IDMateriaPrima:        a.IDMateriaPrima,
		IDUsuarioDestinatario: a.IDUsuarioDestinatario,
		OcurridoEn:            a.FechaCreacion.Format(time.RFC3339),
	}
	publish(func(ctx context.Context) error {
		if err := s.events.InventoryAlert(ctx, ev); err != nil {
			slog.Warn("publish inventario.alerta failed", "id_alerta", ev.IDAlerta, "error", err)
			return err
		}
		return nil
	})
}
