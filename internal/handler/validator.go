package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/party-venue-reservation/internal/payment"
	"github.com/iliyamo/party-venue-reservation/internal/schedule"
)

// Validator plugs go-playground/validator into Echo.  Field names in
// errors use the json tag so clients see the names they sent.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the venue's custom tags:
//
//	fecha        YYYY-MM-DD
//	hora         HH:MM
//	horario      manana | tarde (accents and case folded)
//	metodo_pago  any label payment.NormalizeMethod accepts
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("fecha", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("hora", func(fl validator.FieldLevel) bool {
		_, err := schedule.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("horario", func(fl validator.FieldLevel) bool {
		_, err := schedule.SlotRange(schedule.NormalizeSlot(fl.Field().String()))
		return err == nil
	})
	_ = v.RegisterValidation("metodo_pago", func(fl validator.FieldLevel) bool {
		_, ok := payment.NormalizeMethod(fl.Field().String())
		return ok
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	campos := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		campos[fieldPath(fe)] = describe(fe)
	}
	return &ValidationError{Campos: campos}
}

// ValidationError lists the offending fields of a request body.
type ValidationError struct {
	Campos map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Campos))
	for k, v := range e.Campos {
		parts = append(parts, k+": "+v)
	}
	return "validación fallida: " + strings.Join(parts, "; ")
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "es obligatorio"
	case "email":
		return "debe ser un email válido"
	case "min":
		return fmt.Sprintf("mínimo %s", fe.Param())
	case "max":
		return fmt.Sprintf("máximo %s", fe.Param())
	case "gt":
		return fmt.Sprintf("debe ser mayor que %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("debe ser uno de: %s", fe.Param())
	case "fecha":
		return "fecha inválida, se espera YYYY-MM-DD"
	case "hora":
		return "hora inválida, se espera HH:MM"
	case "horario":
		return "horario inválido, se espera manana o tarde"
	case "metodo_pago":
		return "método de pago no reconocido"
	}
	return "valor inválido"
}
