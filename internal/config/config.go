package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/rezonia/invoice-renderer/internal/layout"
)

// Config holds application configuration.
type Config struct {
	Address   string
	DataDir   string
	OutputDir string
	LogLevel  string
	Debug     bool

	MarginMM float64
	FooterMM float64
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	defaults := layout.A4()

	return Config{
		Address:   getenv("RENDERER_ADDRESS", ":8080"),
		DataDir:   getenv("RENDERER_DATA_DIR", "./data"),
		OutputDir: getenv("RENDERER_OUTPUT_DIR", "./out"),
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		Debug:     getenvBool("RENDERER_DEBUG", false),
		MarginMM:  getenvFloat("RENDERER_MARGIN_MM", defaults.MarginTopMM),
		FooterMM:  getenvFloat("RENDERER_FOOTER_MM", defaults.FooterReservedMM),
	}
}

// Geometry returns the A4 page geometry with the configured margins
func (c Config) Geometry() layout.Geometry {
	return layout.A4().WithMargins(c.MarginMM).WithFooter(c.FooterMM)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
