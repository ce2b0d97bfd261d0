package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/config"
	"github.com/iliyamo/party-venue-reservation/internal/model"
	"github.com/iliyamo/party-venue-reservation/internal/repository"
)

// UserHandler serves /api/usuarios.  Everything but /me is admin only.
type UserHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Tokens: t}
}

type createUserReq struct {
	Nombre   string  `json:"nombre" validate:"required,max=100"`
	Email    string  `json:"email" validate:"required,email,max=150"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Telefono *string `json:"telefono" validate:"omitempty,max=20"`
	Rol      string  `json:"rol" validate:"omitempty,oneof=admin cliente"`
}

type updateUserReq struct {
	Nombre   *string `json:"nombre" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=150"`
	Telefono *string `json:"telefono" validate:"omitempty,max=20"`
	Rol      *string `json:"rol" validate:"omitempty,oneof=admin cliente"`
	Password *string `json:"password" validate:"omitempty,min=8,max=72"`
}

func (r updateUserReq) toUpdate() repository.UserUpdate {
	return repository.UserUpdate{Nombre: r.Nombre, Email: r.Email, Telefono: r.Telefono, Rol: r.Rol, Password: r.Password}
}

func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	users, err := h.Users.List(ctx, includeInactive(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if req.Rol == "" {
		req.Rol = model.RoleCliente
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	id, err := h.Users.Create(ctx, repository.NewUser{
		Nombre: req.Nombre, Email: req.Email, Password: req.Password, Telefono: req.Telefono, Rol: req.Rol,
	}, h.Cfg.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}
	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req updateUserReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.Update(ctx, id, req.toUpdate(), h.Cfg.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}
	if req.Password != nil {
		h.endSessions(ctx, id)
	}
	return c.JSON(http.StatusOK, u)
}

// Delete deactivates the account.  An admin cannot deactivate themselves.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if me, _ := getUserID(c); me == id {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no puedes desactivar tu propia cuenta"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	if err := h.Users.SoftDelete(ctx, id); err != nil {
		return respondError(c, err)
	}
	h.endSessions(ctx, id)
	return c.NoContent(http.StatusNoContent)
}

// endSessions revokes the user's refresh tokens.  The account change has
// already been committed, so a failure is only logged.
func (h *UserHandler) endSessions(ctx context.Context, id uint64) {
	if h.Tokens == nil {
		return
	}
	n, err := h.Tokens.RevokeAllForUser(ctx, id)
	if err != nil {
		slog.WarnContext(ctx, "revoke sessions failed", "user_id", id, "error", err)
		return
	}
	slog.DebugContext(ctx, "sessions revoked", "user_id", id, "count", n)
}

func (h *UserHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token requerido"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// UpdateMe edits the caller's own profile; the role is not editable here.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token requerido"})
	}
	var req updateUserReq
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	req.Rol = nil
	ctx, cancel := requestCtx(c)
	defer cancel()
	u, err := h.Users.Update(ctx, uid, req.toUpdate(), h.Cfg.BcryptCost)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
