package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
)

// Catalog groups the catalog stores the workflows read from.
type Catalog struct {
	Packages    *repository.CatalogStore[model.Package]
	Themes      *repository.CatalogStore[model.Theme]
	Decors      *repository.CatalogStore[model.Decor]
	FoodOptions *repository.CatalogStore[model.FoodOption]
	Extras      *repository.CatalogStore[model.Extra]
	Materials   *repository.CatalogStore[model.RawMaterial]
}

// Priced is a booking total with its extras priced line by line.
type Priced struct {
	Total  decimal.Decimal
	Extras []model.LineExtra
}

// Price computes
//
//	paquete.precio + mampara.precio
//	  + opcion.precio_adulto*adultos + opcion.precio_nino*ninos
//	  + sum(extra.precio*cantidad)
//
// Every referenced item must exist and be active.  Repeated extras are
// merged.
func (c Catalog) Price(ctx context.Context, q repository.DBTX, d model.EventDetails, extras []model.ExtraQuantity) (Priced, error) {
	var out Priced
	if d.NumeroAdultos < 0 || d.NumeroNinos < 0 {
		return out, fmt.Errorf("%w: número de invitados negativo", ErrInvalidInput)
	}
	pkg, err := c.Packages.GetActiveTx(ctx, q, d.IDPaquete)
	if err != nil {
		return out, referenceErr(err, "paquete", d.IDPaquete)
	}
	total := pkg.Precio

	if d.IDTematica != nil {
		if _, err := c.Themes.GetActiveTx(ctx, q, *d.IDTematica); err != nil {
			return out, referenceErr(err, "tematica", *d.IDTematica)
		}
	}
	if d.IDMampara != nil {
		m, err := c.Decors.GetActiveTx(ctx, q, *d.IDMampara)
		if err != nil {
			return out, referenceErr(err, "mampara", *d.IDMampara)
		}
		total = total.Add(m.Precio)
	}
	if d.IDOpcionAlimento != nil {
		f, err := c.FoodOptions.GetActiveTx(ctx, q, *d.IDOpcionAlimento)
		if err != nil {
			return out, referenceErr(err, "opcion_alimento", *d.IDOpcionAlimento)
		}
		total = total.
			Add(f.PrecioAdulto.Mul(decimal.NewFromInt(int64(d.NumeroAdultos)))).
			Add(f.PrecioNino.Mul(decimal.NewFromInt(int64(d.NumeroNinos))))
	}

	qty := map[uint64]int{}
	for _, e := range extras {
		if e.Cantidad <= 0 {
			return out, fmt.Errorf("%w: cantidad de extra debe ser positiva", ErrInvalidInput)
		}
		qty[e.IDExtra] += e.Cantidad
	}
	ids := make([]uint64, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out.Extras = make([]model.LineExtra, 0, len(ids))
	for _, id := range ids {
		x, err := c.Extras.GetActiveTx(ctx, q, id)
		if err != nil {
			return out, referenceErr(err, "extra", id)
		}
		out.Extras = append(out.Extras, model.LineExtra{
			IDExtra: id, Nombre: x.Nombre, Cantidad: qty[id], PrecioUnitario: x.Precio,
		})
		total = total.Add(x.Precio.Mul(decimal.NewFromInt(int64(qty[id]))))
	}
	out.Total = total
	return out, nil
}

func referenceErr(err error, what string, id uint64) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s %d", ErrInvalidReference, what, id)
	}
	return err
}
