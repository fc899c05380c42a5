package indicators

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yizus58/api-zoo/internal/db"
)

type fakeRepo struct {
	zones   []db.ZoneTotalRow
	species []db.SpeciesTotalRow
	err     error

	lastZoneID    string
	lastSpeciesID string
}

func (f *fakeRepo) AnimalsByZone(_ context.Context, id string) ([]db.ZoneTotalRow, error) {
	f.lastZoneID = id
	return f.zones, f.err
}

func (f *fakeRepo) AnimalsBySpecies(_ context.Context, id string) ([]db.SpeciesTotalRow, error) {
	f.lastSpeciesID = id
	return f.species, f.err
}

func TestTotalAnimalsByZone_All(t *testing.T) {
	repo := &fakeRepo{zones: []db.ZoneTotalRow{
		{ID: "z1", Name: "Sabana", TotalAnimals: 4},
		{ID: "z2", Name: "Aviario", TotalAnimals: 9},
	}}
	s := NewService(repo, slog.New(slog.DiscardHandler))

	rows, err := s.TotalAnimalsByZone(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "z1", rows[0].ID, "listing keeps zone ids")
	require.Empty(t, repo.lastZoneID)
}

func TestTotalAnimalsByZone_SingleDropsID(t *testing.T) {
	repo := &fakeRepo{zones: []db.ZoneTotalRow{
		{ID: "z1", Name: "Sabana", TotalAnimals: 4},
	}}
	s := NewService(repo, slog.New(slog.DiscardHandler))

	rows, err := s.TotalAnimalsByZone(context.Background(), "z1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Empty(t, rows[0].ID, "single-zone lookup omits the redundant id")
	require.Equal(t, "z1", repo.lastZoneID)
}

func TestTotalAnimalsByZone_Error(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	s := NewService(repo, slog.New(slog.DiscardHandler))

	_, err := s.TotalAnimalsByZone(context.Background(), "")
	require.Error(t, err)
}

func TestTotalAnimalsBySpecies(t *testing.T) {
	repo := &fakeRepo{species: []db.SpeciesTotalRow{
		{ID: "s1", Name: "León", TotalAnimals: 2},
	}}
	s := NewService(repo, slog.New(slog.DiscardHandler))

	rows, err := s.TotalAnimalsBySpecies(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "s1", repo.lastSpeciesID)
}
