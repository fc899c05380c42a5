package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yizus58/api-zoo/internal/types"
)

type fakeUserStore struct {
	users   map[string]*types.User
	created *types.User
}

func newFakeUserStore(users ...*types.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*types.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*types.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
}

func (f *fakeUserStore) List(context.Context) ([]types.User, error) {
	var out []types.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserStore) Create(_ context.Context, u *types.User) error {
	f.created = u
	f.users[u.ID] = u
	return nil
}

func TestUserCreate_AdminOnly(t *testing.T) {
	store := newFakeUserStore()
	h := NewUserHandler(store, testValidator(), testLogger())
	body := map[string]string{
		"email":    "nuevo@zoo.com",
		"password": "secreto123",
		"role":     "EMPLEADO",
	}

	rec := doJSON(t, newTestRouter(h, visitorActor()), http.MethodPost, "/users", body)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Nil(t, store.created)

	rec = doJSON(t, newTestRouter(h, adminActor()), http.MethodPost, "/users", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, store.created)
	require.Equal(t, types.RoleEmpleado, store.created.Role)

	// The stored hash verifies against the submitted password.
	err := bcrypt.CompareHashAndPassword([]byte(store.created.PasswordHash), []byte("secreto123"))
	require.NoError(t, err)
}

func TestUserCreate_RejectsUnknownRole(t *testing.T) {
	h := NewUserHandler(newFakeUserStore(), testValidator(), testLogger())

	rec := doJSON(t, newTestRouter(h, adminActor()), http.MethodPost, "/users", map[string]string{
		"email":    "nuevo@zoo.com",
		"password": "secreto123",
		"role":     "SUPERUSER",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserCreate_NeverEchoesPasswordHash(t *testing.T) {
	h := NewUserHandler(newFakeUserStore(), testValidator(), testLogger())

	rec := doJSON(t, newTestRouter(h, adminActor()), http.MethodPost, "/users", map[string]string{
		"email":    "nuevo@zoo.com",
		"password": "secreto123",
		"role":     "USUARIO",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotContains(t, rec.Body.String(), "secreto123")
	require.NotContains(t, rec.Body.String(), "password")
}

func TestUserProfile(t *testing.T) {
	store := newFakeUserStore(&types.User{
		ID: "visitor-1", Email: "visitor@zoo.com", Role: types.RoleUsuario,
	})
	h := NewUserHandler(store, testValidator(), testLogger())

	rec := doJSON(t, newTestRouter(h, visitorActor()), http.MethodGet, "/users/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user types.User
	decodeBody(t, rec, &user)
	require.Equal(t, "visitor@zoo.com", user.Email)
}

func TestUserList(t *testing.T) {
	store := newFakeUserStore(
		&types.User{ID: "u1", Email: "a@zoo.com", Role: types.RoleAdmin},
		&types.User{ID: "u2", Email: "b@zoo.com", Role: types.RoleUsuario},
	)
	h := NewUserHandler(store, testValidator(), testLogger())

	rec := doJSON(t, newTestRouter(h, visitorActor()), http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []types.User
	decodeBody(t, rec, &users)
	require.Len(t, users, 2)
}
