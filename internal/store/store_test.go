package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekplan/internal/model"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "state.yaml"))
	require.NoError(t, err)
	return s
}

func TestLoadMissingFileYieldsEmptyState(t *testing.T) {
	s := tempStore(t)
	st, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, st.Goals)
	assert.Empty(t, st.Templates)
	assert.Empty(t, st.Blocks)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	start := time.Date(2026, time.March, 2, 18, 0, 0, 0, time.UTC)

	in := State{
		Goals: []model.Goal{{
			ID: "g1", Name: "Climb",
			WeeklyTargetMinutes: 120, SessionMinutes: 60,
			Priority: model.PriorityHigh, Location: model.LocationGym,
		}},
		Templates: []model.Template{{
			ID: "t1", Title: "Standup",
			Start: start, End: start.Add(15 * time.Minute),
			Days: []time.Weekday{time.Monday, time.Wednesday},
		}},
		Blocks: []model.Block{{
			ID: "b1", GoalID: "g1",
			Start: start, End: start.Add(time.Hour),
			Status: model.StatusPlanned, Locked: true,
		}},
	}
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out.Goals, 1)
	assert.Equal(t, model.LocationGym, out.Goals[0].Location)
	require.Len(t, out.Templates, 1)
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, out.Templates[0].Days)
	require.Len(t, out.Blocks, 1)
	assert.True(t, out.Blocks[0].Start.Equal(start))
	assert.True(t, out.Blocks[0].Locked)
}

func TestUpdateReadModifyWrite(t *testing.T) {
	s := tempStore(t)

	_, err := s.Update(func(st *State) error {
		st.Goals = append(st.Goals, model.Goal{ID: "g1", Name: "Run"})
		return nil
	})
	require.NoError(t, err)

	st, err := s.Update(func(st *State) error {
		st.Goals = append(st.Goals, model.Goal{ID: "g2", Name: "Read"})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, st.Goals, 2)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Goals, 2)
}
