package middleware

// identity.go holds the context keys JWTAuth fills in and the accessors
// the rest of the API reads them through.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/party-venue-reservation/internal/model"
)

// Context keys set by JWTAuth and OptionalAuth.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// Role returns the caller's role, or "" for guests.
func Role(c echo.Context) string {
	r, _ := c.Get(CtxRole).(string)
	return r
}

// IsAdmin reports whether the caller is signed in as an administrator.
func IsAdmin(c echo.Context) bool { return Role(c) == model.RoleAdmin }

// userID returns the caller id as a string, or "anon" for guests.  Used in
// log fields and rate-limit keys.
func userID(c echo.Context) string {
	if id := userIDPtr(c); id != nil {
		return strconv.FormatUint(*id, 10)
	}
	return "anon"
}

// userIDPtr returns the caller id, or nil for guests.
func userIDPtr(c echo.Context) *uint64 {
	if id, ok := c.Get(CtxUserID).(uint64); ok && id != 0 {
		return &id
	}
	return nil
}
