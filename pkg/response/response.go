// pkg/response/response.go
package response

import (
	"encoding/json"
	"log"
	"net/http"
)

// Message - единый формат тела ошибок и простых ответов.
type Message struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Message{Message: msg})
}

// OK - 200 с {"message": msg}.
func OK(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, Message{Message: msg})
}
