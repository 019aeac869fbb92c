package httpjson

import (
	"encoding/json"
	"net/http"
)

type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	Write(w, status, ErrorBody{Error: message})
}

// WriteErrorCode ajoute un code stable (ex: timeout, upstream_error).
func WriteErrorCode(w http.ResponseWriter, status int, code, message string) {
	Write(w, status, ErrorBody{Error: message, Code: code})
}
