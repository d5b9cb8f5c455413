package sequence

import (
	"log/slog"
	"sync"

	"github.com/MrJamesThe3rd/facture/internal/store"
)

const fileName = "invoice_data.json"

// DefaultStart is the number a fresh installation starts at.
const DefaultStart = 1

type state struct {
	LastInvoiceNumber int `json:"last_invoice_number"`
}

// Sequencer hands out invoice numbers from a single persisted counter.
// Every call reads the counter from disk so that the file stays the source
// of truth.
type Sequencer struct {
	mu    sync.Mutex
	store *store.Store
}

func New(s *store.Store) *Sequencer {
	return &Sequencer{store: s}
}

func (q *Sequencer) load() state {
	return store.Load(q.store, fileName, state{LastInvoiceNumber: DefaultStart})
}

// Current returns the persisted counter without changing it.
func (q *Sequencer) Current() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.load().LastInvoiceNumber
}

// Next increments the counter by one, persists it, and returns the new value.
func (q *Sequencer) Next() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	st := q.load()
	st.LastInvoiceNumber++
	q.store.Save(fileName, st)

	slog.Debug("advanced invoice number", "number", st.LastInvoiceNumber)

	return st.LastInvoiceNumber
}

// SetLast forces the counter to n. It may move the counter backwards; it is
// used when an older invoice is reopened for editing.
func (q *Sequencer) SetLast(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.store.Save(fileName, state{LastInvoiceNumber: n})

	slog.Debug("synchronised invoice number", "number", n)
}
