package common

import (
	"errors"
	"log"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/matst80/slask-gallery/pkg/types"
)

// HttpError carries the status code a handler failure should produce.
type HttpError struct {
	Status int
	Err    error
}

func (e *HttpError) Error() string {
	return e.Err.Error()
}

func (e *HttpError) Unwrap() error {
	return e.Err
}

func NewHttpError(status int, err error) error {
	return &HttpError{Status: status, Err: err}
}

type errorResponse struct {
	Error string `json:"error"`
}

// WriteJson writes v with the given status.
func WriteJson(w http.ResponseWriter, status int, v any) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}

func JsonHandler(trk types.Tracking, fn func(w http.ResponseWriter, r *http.Request, sessionId string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			RespondToOptions(w, r)
			return
		}
		sessionId := HandleSessionCookie(trk, w, r)
		err := fn(w, r, sessionId)
		if err == nil {
			return
		}
		status := http.StatusInternalServerError
		var httpErr *HttpError
		if errors.As(err, &httpErr) {
			status = httpErr.Status
		}
		log.Printf("Error handling request %s %s: %v", r.Method, r.URL.Path, err)
		if werr := WriteJson(w, status, errorResponse{Error: err.Error()}); werr != nil {
			log.Printf("Failed to write error response: %v", werr)
		}
	}
}

func RespondToOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Age", "0")
	w.WriteHeader(http.StatusAccepted)
}
