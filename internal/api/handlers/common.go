package handlers

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"mtsync/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorResponse стандартный формат ответа об ошибке для технических сбоев
// (auth, rate limit, panic). Доменные ошибки синхронизации возвращаются
// конвертом models.SyncResponse со status=false.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON сериализует body и пишет его с указанным HTTP статусом
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ошибку записи в уже открытый ответ исправить нельзя, клиент получит обрыв
	_ = json.NewEncoder(w).Encode(body)
}

// writeInvalidRequest возвращает 400 с доменным конвертом.
// Формулировка сообщения совпадает с ответом CLI на неполные аргументы.
func writeInvalidRequest(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, models.Failure(models.MsgInvalidRequest))
}
