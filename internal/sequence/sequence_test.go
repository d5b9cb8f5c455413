package sequence_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/facture/internal/sequence"
	"github.com/MrJamesThe3rd/facture/internal/store"
)

func newSequencer(t *testing.T, initial string) (*sequence.Sequencer, string) {
	t.Helper()

	dir := t.TempDir()
	if initial != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "invoice_data.json"), []byte(initial), 0o644))
	}

	s, err := store.New(dir)
	require.NoError(t, err)

	return sequence.New(s), dir
}

func TestSequencer_CurrentDefaults(t *testing.T) {
	q, _ := newSequencer(t, "")
	assert.Equal(t, sequence.DefaultStart, q.Current())
	assert.Equal(t, sequence.DefaultStart, q.Current())
}

func TestSequencer_NextIsStrictlyIncreasing(t *testing.T) {
	const k, n = 41, 5

	q, dir := newSequencer(t, `{"last_invoice_number": 41}`)

	for i := 1; i <= n; i++ {
		assert.Equal(t, k+i, q.Next())
	}

	data, err := os.ReadFile(filepath.Join(dir, "invoice_data.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_invoice_number": 46}`, string(data))

	// A fresh sequencer over the same directory sees the persisted value.
	s, err := store.New(dir)
	require.NoError(t, err)
	assert.Equal(t, k+n, sequence.New(s).Current())
}

func TestSequencer_NextIsACriticalSection(t *testing.T) {
	q, _ := newSequencer(t, `{"last_invoice_number": 0}`)

	const workers = 20

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[int]bool)
	)

	for range workers {
		wg.Go(func() {
			n := q.Next()

			mu.Lock()
			seen[n] = true
			mu.Unlock()
		})
	}

	wg.Wait()

	assert.Len(t, seen, workers)
	assert.Equal(t, workers, q.Current())
}

func TestSequencer_SetLastMayGoBackward(t *testing.T) {
	q, _ := newSequencer(t, `{"last_invoice_number": 120}`)

	q.SetLast(7)
	assert.Equal(t, 7, q.Current())
	assert.Equal(t, 8, q.Next())
}

func TestSequencer_CorruptFileFallsBackToDefault(t *testing.T) {
	q, _ := newSequencer(t, `not json`)
	assert.Equal(t, sequence.DefaultStart, q.Current())
	assert.Equal(t, sequence.DefaultStart+1, q.Next())
}
