package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name    string `envconfig:"APP_NAME" default:"Facture"`
		Port    int    `envconfig:"PORT" default:"8080"`
		DataDir string `envconfig:"DATA_DIR" default:"."`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	}

	Renderer struct {
		URL      string        `envconfig:"RENDERER_URL" default:"https://invoice-generator.com"`
		APIKey   string        `envconfig:"RENDERER_API_KEY"`
		Timeout  time.Duration `envconfig:"RENDERER_TIMEOUT" default:"15s"`
		Language string        `envconfig:"RENDERER_LANGUAGE" default:"fr-FR"`
	}

	Tax struct {
		GST string `envconfig:"DEFAULT_GST_RATE" default:"5.00"`
		QST string `envconfig:"DEFAULT_QST_RATE" default:"9.975"`
	}
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
