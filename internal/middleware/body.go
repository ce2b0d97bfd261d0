package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	ctxBody      = "request_body"
	maxBodyCopy  = 8 << 10
	redactedMask = "***"
)

// sensitiveKeys are never written to logs or the audit table.
var sensitiveKeys = map[string]bool{
	"password":        true,
	"contrasena":      true,
	"contraseña":      true,
	"password_actual": true,
	"refresh_token":   true,
	"token":           true,
	"client_secret":   true,
	"datos_tarjeta":   true,
}

// snapshotBody returns a redacted copy of the request body, at most
// maxBodyCopy bytes, and puts the full body back for the handler.  The
// copy is memoised on the context.
func snapshotBody(c echo.Context) string {
	if v, ok := c.Get(ctxBody).(string); ok {
		return v
	}
	req := c.Request()
	if req.Body == nil || req.Method == http.MethodGet || req.Method == http.MethodHead {
		c.Set(ctxBody, "")
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(req.Body, maxBodyCopy+1))
	if err != nil {
		c.Set(ctxBody, "")
		return ""
	}
	req.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), req.Body))
	if len(raw) > maxBodyCopy {
		raw = raw[:maxBodyCopy]
	}
	out := redact(raw)
	c.Set(ctxBody, out)
	return out
}

// redact masks sensitive keys anywhere in a JSON document.  Bodies that
// are not JSON are kept only when short.
func redact(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	var doc any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		if len(trimmed) > 256 {
			return "<cuerpo no JSON>"
		}
		return string(trimmed)
	}
	out, err := json.Marshal(mask(doc))
	if err != nil {
		return ""
	}
	return string(out)
}

func mask(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if sensitiveKeys[strings.ToLower(k)] {
				t[k] = redactedMask
				continue
			}
			t[k] = mask(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = mask(t[i])
		}
		return t
	}
	return v
}
