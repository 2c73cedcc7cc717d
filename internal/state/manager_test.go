package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal(t *testing.T) {
	j, err := New(filepath.Join(t.TempDir(), "badger"))
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	entries, err := j.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, entries)

	runs := []Entry{
		{Time: base, Outcome: "unchanged", IP: "1.2.3.4", RecordName: "home.example.com", RecordID: "rec1"},
		{Time: base.Add(time.Minute), Outcome: "updated", IP: "5.6.7.8", RecordName: "home.example.com", RecordID: "rec1", PreviousContent: "1.2.3.4"},
		{Time: base.Add(2 * time.Minute), Outcome: "discovery_failed", RecordName: "home.example.com", Error: "all sources failed"},
	}
	for _, e := range runs {
		require.NoError(t, j.Append(ctx, e))
	}

	got, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "discovery_failed", got[0].Outcome)
	assert.Equal(t, "all sources failed", got[0].Error)
	assert.Equal(t, "updated", got[1].Outcome)
	assert.Equal(t, "1.2.3.4", got[1].PreviousContent)
	assert.True(t, got[1].Time.Equal(base.Add(time.Minute)))

	all, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := j.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestJournalPrune(t *testing.T) {
	j, err := open(filepath.Join(t.TempDir(), "badger"), 3)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, j.Append(ctx, Entry{Time: base.Add(time.Duration(i) * time.Minute), Outcome: "unchanged", IP: "10.0.0." + string(rune('1'+i))}))
	}

	got, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "10.0.0.5", got[0].IP)
	assert.Equal(t, "10.0.0.3", got[2].IP)
}

func TestJournalReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badger")
	ctx := context.Background()

	j, err := New(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, Entry{Time: time.Now(), Outcome: "updated", IP: "5.6.7.8"}))
	require.NoError(t, j.Close())

	j, err = New(path)
	require.NoError(t, err)
	defer j.Close()

	got, err := j.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "5.6.7.8", got[0].IP)
}
