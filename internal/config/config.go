// Package config assembles runtime configuration once at startup, from
// environment variables and an optional YAML file. Core packages receive
// explicit values and never read the environment themselves.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds all application configuration.
type Config struct {
	Router  RouterConfig  `yaml:"router"`
	OCR     OCRConfig     `yaml:"ocr"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Mistral MistralConfig `yaml:"mistral"`
	Quality QualityConfig `yaml:"quality"`
}

// RouterConfig is the selection policy.
type RouterConfig struct {
	DefaultEngine  string   `yaml:"default_engine"`
	AllowedEngines []string `yaml:"allowed_engines"`
	FallbackOrder  []string `yaml:"fallback_order"`
}

// OCRConfig tunes the local poppler/tesseract backend.
type OCRConfig struct {
	Pdftotext     string `yaml:"pdftotext"`
	Pdftoppm      string `yaml:"pdftoppm"`
	Tesseract     string `yaml:"tesseract"`
	Language      string `yaml:"language"`
	DPI           int    `yaml:"dpi"`
	MaxPages      int    `yaml:"max_pages"`
	TessdataDir   string `yaml:"tessdata_dir"`
	TSVConfidence bool   `yaml:"tsv_confidence"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// MistralConfig holds Mistral OCR API settings.
type MistralConfig struct {
	APIKey   string        `yaml:"api_key"`
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

// QualityConfig holds post-extraction quality thresholds.
type QualityConfig struct {
	MinTextLength     int     `yaml:"min_text_length"`
	MinOCRConfidence  float64 `yaml:"min_ocr_confidence"`
	MaxGibberishRatio float64 `yaml:"max_gibberish_ratio"`
}

// Load builds configuration from environment variables.
func Load() *Config {
	return &Config{
		Router: RouterConfig{
			DefaultEngine:  getEnv("DOCROUTE_DEFAULT_ENGINE", ""),
			AllowedEngines: getEnvAsList("DOCROUTE_ALLOWED_ENGINES"),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("DOCROUTE_PDFTOTEXT", ""),
			Pdftoppm:      getEnv("DOCROUTE_PDFTOPPM", ""),
			Tesseract:     getEnv("DOCROUTE_TESSERACT", ""),
			Language:      getEnv("DOCROUTE_OCR_LANG", ""),
			DPI:           getEnvAsInt("DOCROUTE_OCR_DPI", 0),
			MaxPages:      getEnvAsInt("DOCROUTE_OCR_MAX_PAGES", 0),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			TSVConfidence: getEnvAsBool("DOCROUTE_OCR_TSV_CONFIDENCE", false),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("DOCROUTE_GEMINI_MODEL", ""),
		},
		Mistral: MistralConfig{
			APIKey:   getEnv("MISTRAL_API_KEY", ""),
			Endpoint: getEnv("DOCROUTE_MISTRAL_ENDPOINT", ""),
			Model:    getEnv("DOCROUTE_MISTRAL_MODEL", ""),
		},
		Quality: QualityConfig{
			MinTextLength:     getEnvAsInt("DOCROUTE_QUALITY_MIN_TEXT_LENGTH", 50),
			MinOCRConfidence:  getEnvAsFloat("DOCROUTE_QUALITY_OCR_CONFIDENCE_MIN", 0.8),
			MaxGibberishRatio: getEnvAsFloat("DOCROUTE_QUALITY_GIBBERISH_RATIO_MAX", 0.3),
		},
	}
}

// MergeFile overlays non-zero values from a YAML config file.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	if file.Router.DefaultEngine != "" {
		c.Router.DefaultEngine = file.Router.DefaultEngine
	}
	if len(file.Router.AllowedEngines) > 0 {
		c.Router.AllowedEngines = file.Router.AllowedEngines
	}
	if len(file.Router.FallbackOrder) > 0 {
		c.Router.FallbackOrder = file.Router.FallbackOrder
	}
	if file.OCR != (OCRConfig{}) {
		c.OCR = file.OCR
	}
	if file.Gemini.APIKey != "" {
		c.Gemini.APIKey = file.Gemini.APIKey
	}
	if file.Gemini.Model != "" {
		c.Gemini.Model = file.Gemini.Model
	}
	if file.Mistral.APIKey != "" {
		c.Mistral.APIKey = file.Mistral.APIKey
	}
	if file.Mistral.Endpoint != "" {
		c.Mistral.Endpoint = file.Mistral.Endpoint
	}
	if file.Mistral.Model != "" {
		c.Mistral.Model = file.Mistral.Model
	}
	if file.Quality != (QualityConfig{}) {
		c.Quality = file.Quality
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
