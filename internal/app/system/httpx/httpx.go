// Package httpx writes the JSON envelopes every API handler returns:
//
//	{ "success": true,  "data": ..., "pagination": {...} }
//	{ "success": false, "message": "...", "errors": {"field": "..."} }
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/shelterhub/internal/app/system/inputval"
	"github.com/dalemusser/shelterhub/internal/app/system/paging"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Envelope is the response body shape.
type Envelope struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message,omitempty"`
	Data       any                `json:"data,omitempty"`
	Pagination *paging.Pagination `json:"pagination,omitempty"`
	Errors     map[string]string  `json:"errors,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response failed", zap.Error(err))
	}
}

// OK writes 200 {success:true, data}.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes 201 {success:true, data}.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

// Message writes 200 {success:true, message}.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: msg})
}

// List writes 200 {success:true, data, pagination}. A nil slice is sent as [].
func List[T any](w http.ResponseWriter, rows []T, p paging.Pagination) {
	if rows == nil {
		rows = []T{}
	}
	JSON(w, http.StatusOK, Envelope{Success: true, Data: rows, Pagination: &p})
}

// Error writes {success:false, message}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Envelope{Success: false, Message: msg})
}

// BadRequest, Unauthorized, Forbidden, NotFound and Conflict are shorthands for Error.
func BadRequest(w http.ResponseWriter, msg string)   { Error(w, http.StatusBadRequest, msg) }
func Unauthorized(w http.ResponseWriter, msg string) { Error(w, http.StatusUnauthorized, msg) }
func Forbidden(w http.ResponseWriter, msg string)    { Error(w, http.StatusForbidden, msg) }
func NotFound(w http.ResponseWriter, msg string)     { Error(w, http.StatusNotFound, msg) }
func Conflict(w http.ResponseWriter, msg string)     { Error(w, http.StatusConflict, msg) }

// Invalid writes 400 with the first message and the per-field map.
func Invalid(w http.ResponseWriter, res *inputval.Result) {
	JSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: res.First(),
		Errors:  res.Map(),
	})
}

// ServerError logs err and writes a generic 500.
func ServerError(w http.ResponseWriter, r *http.Request, log *zap.Logger, msg string, err error) {
	if log != nil {
		log.Error(msg, zap.Error(err), zap.String("method", r.Method), zap.String("path", r.URL.Path))
	}
	Error(w, http.StatusInternalServerError, "Internal server error")
}

// StoreError maps a store error: mongo.ErrNoDocuments becomes 404 with
// notFound, anything else a logged 500.
func StoreError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, notFound string) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		NotFound(w, notFound)
		return
	}
	ServerError(w, r, log, "store operation failed", err)
}

// Decode reads a JSON body into v.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}

// Bind decodes and validates a body. On failure it writes the 400 and
// returns false.
func Bind(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := Decode(r, v); err != nil {
		BadRequest(w, "Invalid JSON body: "+err.Error())
		return false
	}
	if res := inputval.Validate(v); res.HasErrors() {
		Invalid(w, res)
		return false
	}
	return true
}

// IDParam parses the chi URL param name as an ObjectID, writing a 400 when
// it is malformed.
func IDParam(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		BadRequest(w, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// ParseObjectID parses an optional hex id. Empty input yields (nil, nil).
func ParseObjectID(s string) (*primitive.ObjectID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
