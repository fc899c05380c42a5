package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yizus58/api-zoo/internal/types"
)

const testZoneID = "0b9f9b52-6f6b-4a7e-9b0a-1d2e3f4a5b6c"

type fakeSpeciesStore struct {
	species map[string]*types.Species
}

func newFakeSpeciesStore() *fakeSpeciesStore {
	return &fakeSpeciesStore{species: map[string]*types.Species{}}
}

func (f *fakeSpeciesStore) GetByID(_ context.Context, id string) (*types.Species, error) {
	sp, ok := f.species[id]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundSpecies, "species not found", nil)
	}
	return sp, nil
}

func (f *fakeSpeciesStore) List(context.Context) ([]types.Species, error) {
	out := make([]types.Species, 0, len(f.species))
	for _, sp := range f.species {
		out = append(out, *sp)
	}
	return out, nil
}

func (f *fakeSpeciesStore) Create(_ context.Context, sp *types.Species) error {
	f.species[sp.ID] = sp
	return nil
}

func (f *fakeSpeciesStore) Update(_ context.Context, sp *types.Species) error {
	if _, ok := f.species[sp.ID]; !ok {
		return types.NewAppError(types.ErrCodeNotFoundSpecies, "species not found", nil)
	}
	f.species[sp.ID] = sp
	return nil
}

func (f *fakeSpeciesStore) Delete(_ context.Context, id string) error {
	if _, ok := f.species[id]; !ok {
		return types.NewAppError(types.ErrCodeNotFoundSpecies, "species not found", nil)
	}
	delete(f.species, id)
	return nil
}

func TestSpeciesCreate_StaffOnly(t *testing.T) {
	store := newFakeSpeciesStore()
	h := NewSpeciesHandler(store, testValidator(), testLogger())
	body := SpeciesRequest{Name: "Panthera leo", ZoneID: testZoneID}

	rec := doJSON(t, newTestRouter(h, visitorActor()), http.MethodPost, "/especies", body)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, store.species)

	empleado := &types.Actor{ID: "emp-1", Email: "emp@zoo.com", Role: types.RoleEmpleado}
	rec = doJSON(t, newTestRouter(h, empleado), http.MethodPost, "/especies", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created types.Species
	decodeBody(t, rec, &created)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Panthera leo", created.Name)
	require.Equal(t, testZoneID, created.ZoneID)
}

func TestSpeciesCreate_RejectsMalformedZoneID(t *testing.T) {
	h := NewSpeciesHandler(newFakeSpeciesStore(), testValidator(), testLogger())

	rec := doJSON(t, newTestRouter(h, adminActor()), http.MethodPost, "/especies",
		SpeciesRequest{Name: "Panthera leo", ZoneID: "zona-1"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpeciesList_OpenToAnyRole(t *testing.T) {
	store := newFakeSpeciesStore()
	store.species["sp-1"] = &types.Species{ID: "sp-1", Name: "Panthera leo", ZoneID: testZoneID}
	h := NewSpeciesHandler(store, testValidator(), testLogger())

	rec := doJSON(t, newTestRouter(h, visitorActor()), http.MethodGet, "/especies", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var listed []types.Species
	decodeBody(t, rec, &listed)
	require.Len(t, listed, 1)
}

func TestSpeciesGet_NotFound(t *testing.T) {
	h := NewSpeciesHandler(newFakeSpeciesStore(), testValidator(), testLogger())

	rec := doJSON(t, newTestRouter(h, visitorActor()), http.MethodGet, "/especies/nope", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, string(types.ErrCodeNotFoundSpecies), errorCode(t, rec))
}

func TestSpeciesUpdate(t *testing.T) {
	store := newFakeSpeciesStore()
	store.species["sp-1"] = &types.Species{ID: "sp-1", Name: "Panthera leo", ZoneID: testZoneID}
	h := NewSpeciesHandler(store, testValidator(), testLogger())

	rec := doJSON(t, newTestRouter(h, adminActor()), http.MethodPut, "/especies/sp-1",
		SpeciesRequest{Name: "Panthera tigris", ZoneID: testZoneID})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Panthera tigris", store.species["sp-1"].Name)
}

func TestSpeciesDelete(t *testing.T) {
	store := newFakeSpeciesStore()
	store.species["sp-1"] = &types.Species{ID: "sp-1", Name: "Panthera leo", ZoneID: testZoneID}
	h := NewSpeciesHandler(store, testValidator(), testLogger())

	rec := doJSON(t, newTestRouter(h, adminActor()), http.MethodDelete, "/especies/sp-1", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, store.species)
}
