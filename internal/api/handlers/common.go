package handlers

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"liqcalc/pkg/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse - стандартный формат ответа об ошибке для всех endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse - стандартный формат успешного ответа без данных
type SuccessResponse struct {
	Message string `json:"message"`
}

// respondWithJSON отправляет JSON ответ с указанным статусом
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError отправляет JSON ошибку
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

// respondWithValidationError различает ошибки валидации входов (400)
// и внутренние ошибки (500)
func respondWithValidationError(w http.ResponseWriter, err error) {
	var validationErrs utils.ValidationErrors
	if errors.As(err, &validationErrs) {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: validationErrs.Error(),
		})
		return
	}
	respondWithError(w, http.StatusBadRequest, err.Error())
}

// decodeJSON декодирует тело запроса, 400 при мусорном JSON
func decodeJSON(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
