package validation

import (
	"encoding/json"
	"net/http"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/merchstore/go-points-orders/internal/fault"
)

func New() *validatorv10.Validate {
	return validatorv10.New()
}

// Decode binds the JSON body into out and runs struct validation. Failures
// come back as a VALIDATION_ERROR fault with per-field details.
func Decode(r *http.Request, out any, v *validatorv10.Validate) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return fault.New(fault.Validation, "body", err.Error())
	}
	if err := v.Struct(out); err != nil {
		return fault.New(fault.Validation, "fields", errorsToMap(err))
	}
	return nil
}

func errorsToMap(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.StructNamespace()] = fe.Tag()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
