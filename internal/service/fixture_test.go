package service

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/party-venue-reservation/internal/lock"
	"github.com/iliyamo/party-venue-reservation/internal/payment"
	"github.com/iliyamo/party-venue-reservation/internal/queue"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
)

var (
	packageCols     = []string{"id", "nombre", "descripcion", "precio", "capacidad", "activo", "fecha_creacion", "fecha_actualizacion"}
	decorCols       = []string{"id", "nombre", "id_tematica", "precio", "piezas", "activo", "fecha_creacion", "fecha_actualizacion"}
	foodCols        = []string{"id", "nombre", "id_tematica", "precio_adulto", "precio_nino", "id_materia_prima", "cantidad_por_persona", "activo", "fecha_creacion", "fecha_actualizacion"}
	extraCols       = []string{"id", "nombre", "descripcion", "precio", "activo", "fecha_creacion", "fecha_actualizacion"}
	materialCols    = []string{"id", "nombre", "unidad_medida", "stock_actual", "stock_minimo", "proveedor", "fecha_limite_proveedor", "id_usuario_responsable", "activo", "fecha_creacion", "fecha_actualizacion"}
	busyCols        = []string{"fuente", "id", "hora_inicio", "hora_fin"}
	lineExtraCols   = []string{"owner", "id_extra", "nombre", "cantidad", "precio_unitario"}
	eventCols       = []string{"id_paquete", "id_tematica", "id_mampara", "id_opcion_alimento", "fecha_reserva", "hora_inicio", "hora_fin", "horario", "nombre_festejado", "edad_festejado", "sexo_festejado", "numero_adultos", "numero_ninos", "comentarios"}
	quotationCols   = append(append([]string{"id", "id_usuario", "codigo"}, eventCols...), "total", "estado", "id_reserva", "fecha_creacion", "fecha_expiracion")
	reservationCols = append(append([]string{"id", "id_usuario", "codigo_seguimiento"}, eventCols...), "total", "estado", "activo", "fecha_creacion", "fecha_actualizacion")
	paymentCols     = []string{"id", "id_usuario", "id_reserva", "id_pre_reserva", "metodo_pago", "monto", "moneda", "estado", "referencia_externa", "datos_confirmacion", "fecha_creacion", "fecha_actualizacion"}
)

// morningEvent is a manana party on 2026-06-10 for package 1.
func morningEvent() []driver.Value {
	return []driver.Value{1, nil, nil, nil, "2026-06-10", "11:00", "15:00", "manana", "Sofía", 6, "F", 10, 15, nil}
}

// fixture wires every workflow to one sqlmock connection.
type fixture struct {
	db   *sql.DB
	mock sqlmock.Sqlmock

	catalog      Catalog
	avail        *Availability
	reservations *Reservations
	quotations   *Quotations
	payments     *Payments
	inventory    *Inventory
	finance      *Finance
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalog := Catalog{
		Packages:    repository.NewPackageStore(db),
		Themes:      repository.NewThemeStore(db),
		Decors:      repository.NewDecorStore(db),
		FoodOptions: repository.NewFoodOptionStore(db),
		Extras:      repository.NewExtraStore(db),
		Materials:   repository.NewRawMaterialStore(db),
	}
	resRepo := repository.NewReservationRepo(db)
	avail := NewAvailability(resRepo, catalog)
	locker := lock.NewLocal()
	events := queue.Nop{}
	clock := func() time.Time { return now }

	f := &fixture{db: db, mock: mock, catalog: catalog, avail: avail}
	f.reservations = NewReservations(resRepo, avail, catalog, locker, events)
	f.reservations.now = clock
	f.quotations = NewQuotations(repository.NewQuotationRepo(db), resRepo, avail, catalog, locker, events)
	f.quotations.now = clock
	f.payments = NewPayments(repository.NewPaymentRepo(db), resRepo, repository.NewFinanceRepo(db), avail, catalog,
		payment.Offline{}, locker, events, PaymentsConfig{})
	f.payments.now = clock
	f.inventory = NewInventory(catalog.Materials, repository.NewAdjustmentTypeStore(db),
		repository.NewInventoryRepo(db), repository.NewAlertRepo(db), events)
	f.inventory.now = clock
	f.finance = NewFinance(repository.NewFinanceRepo(db), repository.NewCategoryStore(db))
	f.finance.now = clock
	return f
}
