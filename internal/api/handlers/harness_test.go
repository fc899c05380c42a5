package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/yizus58/api-zoo/internal/core"
	"github.com/yizus58/api-zoo/internal/types"
)

// registrar is anything with the handlers' RegisterRoutes shape.
type registrar interface {
	RegisterRoutes(r chi.Router)
}

// newTestRouter wires a handler into a bare chi router with the given actor
// injected into every request, standing in for the auth middleware.
func newTestRouter(h registrar, actor *types.Actor) *chi.Mux {
	r := chi.NewRouter()
	if actor != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(types.WithActor(req.Context(), *actor)))
			})
		})
	}
	h.RegisterRoutes(r)
	return r
}

func testLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func testValidator() *core.Validator { return core.NewValidator() }

func adminActor() *types.Actor {
	return &types.Actor{ID: "admin-1", Email: "admin@zoo.com", Role: types.RoleAdmin}
}

func visitorActor() *types.Actor {
	return &types.Actor{ID: "visitor-1", Email: "visitor@zoo.com", Role: types.RoleUsuario}
}

// doJSON performs a request with an optional JSON body and returns the
// recorder.
func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a recorder body into dst.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

// errorCode extracts the error code from a standard error envelope.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope core.APIErrorResponse
	decodeBody(t, rec, &envelope)
	return envelope.Error.Code
}
