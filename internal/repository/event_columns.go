package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// Reservations, quotations and pre-reservations share the same event
// columns.  Dates and hours are formatted in SQL so the Go side only ever
// sees YYYY-MM-DD and HH:MM strings.
const eventInsertCols = "id_paquete, id_tematica, id_mampara, id_opcion_alimento, fecha_reserva, hora_inicio, hora_fin, horario, " +
	"nombre_festejado, edad_festejado, sexo_festejado, numero_adultos, numero_ninos, comentarios"

const eventSelectCols = "id_paquete, id_tematica, id_mampara, id_opcion_alimento, " +
	"DATE_FORMAT(fecha_reserva, '%Y-%m-%d'), TIME_FORMAT(hora_inicio, '%H:%i'), TIME_FORMAT(hora_fin, '%H:%i'), horario, " +
	"nombre_festejado, edad_festejado, sexo_festejado, numero_adultos, numero_ninos, comentarios"

const eventPlaceholders = "?,?,?,?,?,?,?,?,?,?,?,?,?,?"

func eventArgs(d *model.EventDetails) []any {
	return []any{d.IDPaquete, d.IDTematica, d.IDMampara, d.IDOpcionAlimento, d.FechaReserva, d.HoraInicio, d.HoraFin,
		d.Horario, d.NombreFestejado, d.EdadFestejado, d.SexoFestejado, d.NumeroAdultos, d.NumeroNinos, d.Comentarios}
}

func eventDest(d *model.EventDetails) []any {
	return []any{&d.IDPaquete, &d.IDTematica, &d.IDMampara, &d.IDOpcionAlimento, &d.FechaReserva, &d.HoraInicio, &d.HoraFin,
		&d.Horario, &d.NombreFestejado, &d.EdadFestejado, &d.SexoFestejado, &d.NumeroAdultos, &d.NumeroNinos, &d.Comentarios}
}

// insertExtras writes line extras in one statement.  An empty slice is a
// no-op.
func insertExtras(ctx context.Context, q DBTX, table, fk string, ownerID uint64, extras []model.LineExtra) error {
	if len(extras) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO " + table + " (" + fk + ", id_extra, cantidad, precio_unitario) VALUES ")
	args := make([]any, 0, len(extras)*4)
	for i, e := range extras {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?)")
		args = append(args, ownerID, e.IDExtra, e.Cantidad, e.PrecioUnitario)
	}
	_, err := q.ExecContext(ctx, sb.String(), args...)
	return err
}

// loadExtras returns the line extras of several owners keyed by owner id.
func loadExtras(ctx context.Context, q DBTX, table, fk string, ids []uint64) (map[uint64][]model.LineExtra, error) {
	out := make(map[uint64][]model.LineExtra, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx,
		"SELECT x."+fk+", x.id_extra, e.nombre, x.cantidad, x.precio_unitario FROM "+table+
			" x JOIN extras e ON e.id = x.id_extra WHERE x."+fk+" IN ("+placeholders+") ORDER BY x.id_extra",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var owner uint64
		var le model.LineExtra
		if err := rows.Scan(&owner, &le.IDExtra, &le.Nombre, &le.Cantidad, &le.PrecioUnitario); err != nil {
			return nil, err
		}
		out[owner] = append(out[owner], le)
	}
	return out, rows.Err()
}
