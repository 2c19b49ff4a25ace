package messagerepo_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/server/messagerepo"
)

func TestInMemoryMessageRepo(t *testing.T) {
	repo := messagerepo.NewInMemoryMessageRepo()
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	add := func(id, from, to, content string, at time.Time) {
		require.NoError(t, repo.Add(model.Message{ID: id, SenderID: from, RecipientID: to, Content: content, Timestamp: at}))
	}
	add("m1", "u1", "u2", "hi", t0)
	add("m2", "u2", "u1", "hey", t0.Add(time.Minute))
	add("m3", "u3", "u1", "yo", t0.Add(2*time.Minute))
	add("m4", "u1", "u2", "again", t0.Add(3*time.Minute))

	between, err := repo.Between("u2", "u1")
	require.NoError(t, err)
	require.Len(t, between, 3)

	involving, err := repo.Involving("u3")
	require.NoError(t, err)
	require.Len(t, involving, 1)

	n, err := repo.MarkRead("u2", "u1")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	n, err = repo.MarkRead("u2", "u1")
	require.NoError(t, err)
	require.Equal(t, 0, n)

	latest, ok := repo.LatestFrom("u1", "u2", t0)
	require.True(t, ok)
	require.Equal(t, "m4", latest.ID)

	_, ok = repo.LatestFrom("u1", "u2", t0.Add(4*time.Minute))
	require.False(t, ok)
}
