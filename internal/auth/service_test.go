package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yizus58/api-zoo/internal/config"
	"github.com/yizus58/api-zoo/internal/types"
)

type fakeUserReader struct {
	users map[string]*types.User
}

func (f *fakeUserReader) GetByEmail(_ context.Context, email string) (*types.User, error) {
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
}

func newTestService(t *testing.T, users ...*types.User) *Service {
	t.Helper()
	reader := &fakeUserReader{users: make(map[string]*types.User)}
	for _, u := range users {
		reader.users[u.Email] = u
	}
	return NewService(reader, config.AuthConfig{
		JWTKey:   types.SecretString("una-clave-de-prueba-larga"),
		TokenTTL: 24 * time.Hour,
	}, slog.New(slog.DiscardHandler))
}

func testUser(t *testing.T, email, password string, role types.UserRole) *types.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return &types.User{
		ID:           "user-1",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
}

func TestLogin_Success(t *testing.T) {
	user := testUser(t, "admin@zoo.com", "secreto123", types.RoleAdmin)
	s := newTestService(t, user)

	result, err := s.Login(context.Background(), "admin@zoo.com", "secreto123")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, "user-1", result.User.ID)
	require.Equal(t, types.RoleAdmin, result.User.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestService(t, testUser(t, "admin@zoo.com", "secreto123", types.RoleAdmin))

	_, err := s.Login(context.Background(), "admin@zoo.com", "incorrecta")

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, types.ErrCodeAuthInvalidCreds, appErr.Code)
}

func TestLogin_UnknownEmailIndistinguishable(t *testing.T) {
	s := newTestService(t, testUser(t, "admin@zoo.com", "secreto123", types.RoleAdmin))

	_, wrongPass := s.Login(context.Background(), "admin@zoo.com", "incorrecta")
	_, unknown := s.Login(context.Background(), "nadie@zoo.com", "loquesea")

	var a, b *types.AppError
	require.ErrorAs(t, wrongPass, &a)
	require.ErrorAs(t, unknown, &b)
	require.Equal(t, a.Code, b.Code)
	require.Equal(t, a.Message, b.Message)
}

func TestTokenRoundTrip(t *testing.T) {
	user := testUser(t, "empleado@zoo.com", "clave1234", types.RoleEmpleado)
	s := newTestService(t, user)

	token, err := s.GenerateToken(user)
	require.NoError(t, err)

	claims, err := s.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UID)
	require.Equal(t, "empleado@zoo.com", claims.Email)
	require.Equal(t, types.RoleEmpleado, claims.Role)
}

func TestVerifyToken_Expired(t *testing.T) {
	user := testUser(t, "a@zoo.com", "clave1234", types.RoleUsuario)
	s := newTestService(t, user)
	s.now = func() time.Time { return time.Now().UTC().Add(-48 * time.Hour) }

	token, err := s.GenerateToken(user)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().UTC() }
	_, err = s.VerifyToken(token)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, types.ErrCodeAuthTokenInvalid, appErr.Code)
}

func TestVerifyToken_Garbage(t *testing.T) {
	s := newTestService(t)

	_, err := s.VerifyToken("no.es.un.token")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, types.ErrCodeAuthTokenInvalid, appErr.Code)
}

func TestVerifyToken_WrongKey(t *testing.T) {
	user := testUser(t, "a@zoo.com", "clave1234", types.RoleUsuario)
	issuer := newTestService(t, user)
	verifier := NewService(&fakeUserReader{}, config.AuthConfig{
		JWTKey:   types.SecretString("otra-clave-diferente-larga"),
		TokenTTL: 24 * time.Hour,
	}, slog.New(slog.DiscardHandler))

	token, err := issuer.GenerateToken(user)
	require.NoError(t, err)

	_, err = verifier.VerifyToken(token)
	require.Error(t, err)
}
