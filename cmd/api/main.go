package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/facture/internal/config"
	factureHttp "github.com/MrJamesThe3rd/facture/internal/http"
	customerHandler "github.com/MrJamesThe3rd/facture/internal/http/customer"
	invoiceHandler "github.com/MrJamesThe3rd/facture/internal/http/invoice"
	settingsHandler "github.com/MrJamesThe3rd/facture/internal/http/settings"
	"github.com/MrJamesThe3rd/facture/internal/pricing"
	"github.com/MrJamesThe3rd/facture/internal/workbench"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	wb, err := workbench.Open(cfg)
	if err != nil {
		slog.Error("failed to open data directory", "dir", cfg.App.DataDir, "error", err)
		os.Exit(1)
	}

	var (
		settingsH = settingsHandler.NewHandler(wb)
		customerH = customerHandler.NewHandler(wb)
		invoiceH  = invoiceHandler.NewHandler(wb, pricing.NewFormatter(language.English))
	)

	router := factureHttp.New(cfg.Server.CORSOrigins, settingsH, customerH, invoiceH)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout + cfg.Renderer.Timeout,
	}

	slog.Info("starting server", "app", cfg.App.Name, "port", server.Addr, "data_dir", cfg.App.DataDir)

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
