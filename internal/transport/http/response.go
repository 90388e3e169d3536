package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{"data": data})
}

func fail(w http.ResponseWriter, status int, msg string, meta map[string]any) {
	e := envelope{"message": msg}
	if len(meta) > 0 {
		e["meta"] = meta
	}
	writeJSON(w, status, envelope{"error": e})
}
