package response

import (
	"encoding/json"
	"net/http"

	"github.com/Pesokrava/storefront_api/internal/domain"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// Error writes an error response as {"error": message}
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// NoContent writes a no content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Paginated writes a list response keyed by the collection name alongside
// pagination metadata
func Paginated(w http.ResponseWriter, key string, items interface{}, pagination *domain.Pagination) {
	JSON(w, http.StatusOK, map[string]interface{}{
		key:          items,
		"pagination": pagination,
	})
}
