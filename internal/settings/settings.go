package settings

import (
	"strings"
	"sync"

	"github.com/MrJamesThe3rd/facture/internal/store"
)

const fileName = "settings.json"

// Settings holds the defaults applied to every new invoice.
type Settings struct {
	Logo     string `json:"logo"`
	From     string `json:"from"`
	Currency string `json:"currency"`
}

// Defaults are the built-in settings written on first access.
func Defaults() Settings {
	return Settings{
		Logo:     "https://yourdomain.com/path/to/logo.png",
		From:     "Your Company Name\n1234 Main St.\nSuite 100\nHometown, QC A1B 2C3\nCanada",
		Currency: "CAD",
	}
}

// Service owns the in-memory copy of the settings record.
type Service struct {
	store *store.Store

	mu      sync.RWMutex
	current Settings
}

// NewService loads the settings record, creating it with Defaults if needed.
func NewService(s *store.Store) *Service {
	return &Service{
		store:   s,
		current: store.Load(s, fileName, Defaults()),
	}
}

func (s *Service) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.current
}

// Save trims and persists the given settings immediately. The in-memory copy
// is updated even when the write fails.
func (s *Service) Save(next Settings) Settings {
	next.Logo = strings.TrimSpace(next.Logo)
	next.From = strings.TrimSpace(next.From)
	next.Currency = strings.TrimSpace(next.Currency)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = next
	s.store.Save(fileName, next)

	return next
}
