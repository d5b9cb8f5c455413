package workbench

import (
	"fmt"

	"github.com/MrJamesThe3rd/facture/internal/archive"
	"github.com/MrJamesThe3rd/facture/internal/config"
	"github.com/MrJamesThe3rd/facture/internal/customer"
	customerStore "github.com/MrJamesThe3rd/facture/internal/customer/store"
	"github.com/MrJamesThe3rd/facture/internal/renderer"
	"github.com/MrJamesThe3rd/facture/internal/sequence"
	"github.com/MrJamesThe3rd/facture/internal/settings"
	"github.com/MrJamesThe3rd/facture/internal/store"
)

// Open wires a workbench over the data directory and renderer named by cfg.
func Open(cfg *config.Config) (*Workbench, error) {
	s, err := store.New(cfg.App.DataDir)
	if err != nil {
		return nil, err
	}

	arch, err := archive.New(cfg.App.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	customers := customer.NewRegistry(customerStore.New(s))
	customers.LoadAll()

	client := renderer.New(cfg.Renderer.APIKey,
		renderer.WithURL(cfg.Renderer.URL),
		renderer.WithLanguage(cfg.Renderer.Language),
		renderer.WithTimeout(cfg.Renderer.Timeout),
	)

	return New(
		settings.NewService(s),
		customers,
		sequence.New(s),
		arch,
		client,
		Rates{GST: cfg.Tax.GST, QST: cfg.Tax.QST},
	), nil
}
