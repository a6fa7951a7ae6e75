package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateBody runs struct validation on a decoded request body. On failure
// it writes a 400 with a per-field details array and returns false.
func validateBody(w http.ResponseWriter, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return false
	}

	details := make([]map[string]interface{}, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		details = append(details, map[string]interface{}{
			"field":  fieldErr.Field(),
			"rule":   fieldErr.Tag(),
			"value":  fieldErr.Param(),
		})
	}

	respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Request validation failed", map[string]interface{}{
		"details": details,
	})
	return false
}

// requestUserID resolves the caller's user id from the userId query
// parameter, falling back to the X-User-ID header.
func requestUserID(r *http.Request) string {
	if userID := r.URL.Query().Get("userId"); userID != "" {
		return userID
	}
	return r.Header.Get("X-User-ID")
}
