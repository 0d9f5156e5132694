package mockbackend

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"edu-task-portal/internal/model"
)

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// success is the platform's Result.success: HTTP 200, code 1.
func success(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, envelope{Code: model.CodeSuccess, Msg: "success", Data: data})
}

// failure is the platform's Result.error: still HTTP 200, code 0.
func failure(w http.ResponseWriter, msg string) {
	writeEnvelope(w, http.StatusOK, envelope{Code: model.CodeFailure, Msg: msg})
}

// reject is what the interceptor writes: a real HTTP status with code 0.
func reject(w http.ResponseWriter, status int, msg string) {
	writeEnvelope(w, status, envelope{Code: model.CodeFailure, Msg: msg})
}

func decodeBody(r *http.Request, v any) bool {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v) == nil
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func listParams(r *http.Request) model.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	return model.ListParams{Page: page, PageSize: pageSize, Name: q.Get("name")}
}
