package core

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/yizus58/api-zoo/internal/auth"
	"github.com/yizus58/api-zoo/internal/config"
	"github.com/yizus58/api-zoo/internal/types"
)

// fakeVerifier accepts a single known token.
type fakeVerifier struct {
	token  string
	claims *auth.Claims
}

func (f *fakeVerifier) VerifyToken(token string) (*auth.Claims, error) {
	if token == f.token {
		return f.claims, nil
	}
	return nil, types.NewAppError(types.ErrCodeAuthTokenInvalid, "invalid token", nil)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(&config.Config{Environment: "local"}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	srv.Authenticator = &fakeVerifier{
		token: "valid-token",
		claims: &auth.Claims{
			UID:   "user-1",
			Email: "a@zoo.com",
			Role:  types.RoleUsuario,
		},
	}
	return srv
}

func TestNewServer_RequiresDeps(t *testing.T) {
	_, err := NewServer(nil, slog.Default())
	require.Error(t, err)

	_, err = NewServer(&config.Config{}, nil)
	require.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.MountRoutes()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRequireAuth_MissingToken(t *testing.T) {
	srv := newTestServer(t)
	srv.RouteRegistrars = append(srv.RouteRegistrars, func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			JSON(w, r, http.StatusOK, map[string]string{"pong": "ok"})
		})
	})
	srv.MountRoutes()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), string(types.ErrCodeAuthTokenMissing))
}

func TestRequireAuth_ValidTokenInjectsActor(t *testing.T) {
	srv := newTestServer(t)
	var actor types.Actor
	srv.RouteRegistrars = append(srv.RouteRegistrars, func(r chi.Router) {
		r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
			actor, _ = types.GetActor(r.Context())
			JSON(w, r, http.StatusOK, actor)
		})
	})
	srv.MountRoutes()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", actor.ID)
	require.Equal(t, types.RoleUsuario, actor.Role)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	srv := newTestServer(t)
	srv.RouteRegistrars = append(srv.RouteRegistrars, func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {})
	})
	srv.MountRoutes()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicRoutesSkipAuth(t *testing.T) {
	srv := newTestServer(t)
	srv.PublicRouteRegistrars = append(srv.PublicRouteRegistrars, func(r chi.Router) {
		r.Post("/auth", func(w http.ResponseWriter, r *http.Request) {
			JSON(w, r, http.StatusOK, map[string]string{"token": "x"})
		})
	})
	srv.MountRoutes()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoverer_PanicBecomes500(t *testing.T) {
	srv := newTestServer(t)
	srv.PublicRouteRegistrars = append(srv.PublicRouteRegistrars, func(r chi.Router) {
		r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
			panic("kaput")
		})
	})
	srv.MountRoutes()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), string(types.ErrCodeInternalUnexpected))
}

func TestRequestID_Propagated(t *testing.T) {
	srv := newTestServer(t)
	srv.PublicRouteRegistrars = append(srv.PublicRouteRegistrars, func(r chi.Router) {
		r.Get("/id", func(w http.ResponseWriter, r *http.Request) {
			JSON(w, r, http.StatusOK, map[string]string{"request_id": types.GetRequestID(r.Context())})
		})
	})
	srv.MountRoutes()

	req := httptest.NewRequest(http.MethodGet, "/id", nil)
	req.Header.Set("X-Request-Id", "req-abc-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Contains(t, rec.Body.String(), "req-abc-123")
}

func TestError_AppErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		code   types.ErrorCode
		status int
	}{
		{"validation", types.ErrCodeValidationInvalidBody, http.StatusBadRequest},
		{"auth", types.ErrCodeAuthTokenInvalid, http.StatusUnauthorized},
		{"permission", types.ErrCodePermissionRole, http.StatusForbidden},
		{"not found", types.ErrCodeNotFoundAnimal, http.StatusNotFound},
		{"conflict", types.ErrCodeConflictRun, http.StatusConflict},
		{"upstream", types.ErrCodeUpstreamBroker, http.StatusBadGateway},
		{"internal", types.ErrCodeInternalDB, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			Error(rec, req, types.NewAppError(tt.code, "boom", nil))
			require.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestError_OpaqueErrorIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	Error(rec, req, errors.New("secret internal detail"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "secret internal detail")
}

func TestDecodeJSON(t *testing.T) {
	type dto struct {
		Name string `json:"nombre"`
	}

	var d dto
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nombre":"Leo"}`))
	require.NoError(t, DecodeJSON(req, &d))
	require.Equal(t, "Leo", d.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err := DecodeJSON(req, &d)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, types.ErrCodeValidationInvalidBody, appErr.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{no json"))
	require.Error(t, DecodeJSON(req, &d))
}

func TestValidator_FieldDetails(t *testing.T) {
	type dto struct {
		Email string `validate:"required,email"`
	}

	v := NewValidator()
	err := v.ValidateStruct(dto{Email: "no-es-email"})

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, types.ErrCodeValidationInvalidEmail, appErr.Code)
	require.Equal(t, "Email", appErr.Details["field"])

	require.NoError(t, v.ValidateStruct(dto{Email: "a@zoo.com"}))
}
