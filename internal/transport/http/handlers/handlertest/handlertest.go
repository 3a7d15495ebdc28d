// Package handlertest builds routers over an in-memory controller for
// handler tests.
package handlertest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"paystream/internal/app/controller"
	"paystream/internal/domain/core"
	"paystream/internal/storage/memory"
	"paystream/internal/transport/http/middleware"
)

var Clock = time.Date(2024, 12, 1, 8, 0, 0, 0, time.UTC)

type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	RequestID string `json:"requestId"`
}

// Controller returns a loaded controller whose store already holds
// employees.
func Controller(t *testing.T, opts controller.Options, employees ...core.Employee) (*controller.Controller, *memory.Store) {
	t.Helper()
	store := memory.New()
	for _, emp := range employees {
		require.NoError(t, store.CreateEmployee(context.Background(), emp))
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return Clock }
	}
	c := controller.New(store, opts)
	require.NoError(t, c.Load(context.Background()))
	return c, store
}

// Router mounts register under /api/v1 behind the request id middleware.
func Router(register func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api/v1", register)
	return r
}

// Do sends a request and returns the recorder. A non-nil body that is not
// already a reader is encoded as JSON.
func Do(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if _, ok := body.(io.Reader); !ok && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// Decode parses the response envelope and, when out is non-nil, its data.
func Decode(t *testing.T, rec *httptest.ResponseRecorder, out any) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

// ErrorCode returns the envelope error code or "".
func ErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := Decode(t, rec, nil)
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}
