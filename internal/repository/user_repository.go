package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/utils"
)

const userCols = "id, nombre, email, password_hash, telefono, rol, activo, fecha_creacion, fecha_actualizacion"

// UserRepo persists accounts in the usuarios table.  Users are never
// removed; deleting one clears its activo flag and blocks login.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// DB exposes the underlying handle.
func (r *UserRepo) DB() *sql.DB { return r.db }

// NewUser is the input of Create.
type NewUser struct {
	Nombre   string
	Email    string
	Password string
	Telefono *string
	Rol      string
}

func scanUser(s rowScanner, u *model.User) error {
	return s.Scan(&u.ID, &u.Nombre, &u.Email, &u.PasswordHash, &u.Telefono, &u.Rol, &u.Activo, &u.CreatedAt, &u.UpdatedAt)
}

// Create hashes the password, inserts the user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, in NewUser, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO usuarios (nombre, email, password_hash, telefono, rol) VALUES (?,?,?,?,?)",
		strings.TrimSpace(in.Nombre), email, hash, in.Telefono, in.Rol)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM usuarios WHERE email = ? LIMIT 1", email), &u)
	return u, translate(err)
}

// GetByID fetches a user by id, active or not.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM usuarios WHERE id = ? LIMIT 1", id), &u)
	return u, translate(err)
}

// List returns users ordered by name.  Inactive users are included only
// when includeInactive is set.
func (r *UserRepo) List(ctx context.Context, includeInactive bool) ([]model.User, error) {
	q := "SELECT " + userCols + " FROM usuarios"
	if !includeInactive {
		q += " WHERE activo = 1"
	}
	q += " ORDER BY nombre"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UserUpdate carries optional changes; nil fields are left untouched.
type UserUpdate struct {
	Nombre   *string
	Email    *string
	Telefono *string
	Rol      *string
	Password *string
}

// Update applies the non-nil fields of in.
func (r *UserRepo) Update(ctx context.Context, id uint64, in UserUpdate, cost int) (model.User, error) {
	if err := rowExists(ctx, r.db, "usuarios", id); err != nil {
		return model.User{}, err
	}
	sets := []string{}
	args := []any{}
	if in.Nombre != nil {
		sets = append(sets, "nombre = ?")
		args = append(args, strings.TrimSpace(*in.Nombre))
	}
	if in.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(*in.Email)))
	}
	if in.Telefono != nil {
		sets = append(sets, "telefono = ?")
		args = append(args, *in.Telefono)
	}
	if in.Rol != nil {
		sets = append(sets, "rol = ?")
		args = append(args, *in.Rol)
	}
	if in.Password != nil {
		hash, err := utils.HashPassword(*in.Password, cost)
		if err != nil {
			return model.User{}, err
		}
		sets = append(sets, "password_hash = ?")
		args = append(args, hash)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := r.db.ExecContext(ctx,
			"UPDATE usuarios SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			if isDuplicate(err) {
				return model.User{}, ErrEmailExists
			}
			return model.User{}, err
		}
	}
	return r.GetByID(ctx, id)
}

// SoftDelete deactivates a user.  Users with live reservations cannot be
// deactivated.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64) error {
	if err := rowExists(ctx, r.db, "usuarios", id); err != nil {
		return err
	}
	var n int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservas WHERE id_usuario = ? AND "+liveReservation, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	return setActive(ctx, r.db, "usuarios", id, false)
}

// Email returns the name and address of a user, used to route mails.
func (r *UserRepo) Email(ctx context.Context, id uint64) (string, string, error) {
	var nombre, email string
	err := r.db.QueryRowContext(ctx, "SELECT nombre, email FROM usuarios WHERE id = ?", id).Scan(&nombre, &email)
	return nombre, email, translate(err)
}
