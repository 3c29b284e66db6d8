package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"ocrsearch/internal/logger"
)

// Engine and rasterizer names accepted by the configuration.
const (
	EngineTesseract  = "tesseract"
	EngineVision     = "vision"
	EngineDocumentAI = "documentai"

	RasterizerMuPDF   = "mupdf"
	RasterizerPoppler = "pdftoppm"
)

type Config struct {
	// Text cleaning
	DictionaryPath    string  `yaml:"dictionary_path"`
	MinWordLength     int     `yaml:"min_word_length"`
	FuzzyCutoff       float64 `yaml:"fuzzy_cutoff"`
	CompoundMinLength int     `yaml:"compound_min_length"`

	// OCR
	OCREngine      string `yaml:"ocr_engine"`
	OCRLanguage    string `yaml:"ocr_language"`
	TessdataPrefix string `yaml:"tessdata_prefix"`

	// Rasterization
	Rasterizer   string `yaml:"rasterizer"`
	PdftoppmPath string `yaml:"pdftoppm_path"`
	RasterDPI    int    `yaml:"raster_dpi"`

	// Batch processing
	BatchWorkers int `yaml:"batch_workers"`

	// Search
	IndexPath   string `yaml:"index_path"`
	SearchLimit int    `yaml:"search_limit"`
	HTTPAddr    string `yaml:"http_addr"`

	// Google Cloud Configuration
	GoogleCloudProject    string `yaml:"google_cloud_project"`
	GoogleCloudLocation   string `yaml:"google_cloud_location"`
	DocumentAIProcessorID string `yaml:"document_ai_processor_id"`
	GoogleSheetURL        string `yaml:"google_sheet_url"`

	// Logging Configuration
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	LogTimeFormat string `yaml:"log_time_format"`
	LogOutput     string `yaml:"log_output"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	config := &Config{
		DictionaryPath:        getEnv("DICTIONARY_PATH", "portuguese_words.txt"),
		MinWordLength:         getEnvInt("MIN_WORD_LENGTH", 2),
		FuzzyCutoff:           getEnvFloat("FUZZY_CUTOFF", 0.85),
		CompoundMinLength:     getEnvInt("COMPOUND_MIN_LENGTH", 12),
		OCREngine:             getEnv("OCR_ENGINE", EngineTesseract),
		OCRLanguage:           getEnv("OCR_LANGUAGE", "por"),
		TessdataPrefix:        getEnv("TESSDATA_PREFIX", ""),
		Rasterizer:            getEnv("RASTERIZER", RasterizerMuPDF),
		PdftoppmPath:          getEnv("PDFTOPPM_PATH", "pdftoppm"),
		RasterDPI:             getEnvInt("RASTER_DPI", 300),
		BatchWorkers:          getEnvInt("BATCH_WORKERS", 1),
		IndexPath:             getEnv("INDEX_PATH", ""),
		SearchLimit:           getEnvInt("SEARCH_LIMIT", 10),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// LoadFile loads the environment configuration and overlays the values set in
// the YAML file at path. Keys missing from the file keep their environment value.
func LoadFile(path string) (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// Validate checks value ranges. Engine specific settings are checked by the
// engine constructors.
func (c *Config) Validate() error {
	if c.MinWordLength < 0 {
		return fmt.Errorf("MIN_WORD_LENGTH must not be negative")
	}
	if c.FuzzyCutoff <= 0 || c.FuzzyCutoff > 1 {
		return fmt.Errorf("FUZZY_CUTOFF must be in (0, 1], got %v", c.FuzzyCutoff)
	}
	if c.CompoundMinLength <= c.MinWordLength {
		return fmt.Errorf("COMPOUND_MIN_LENGTH must be greater than MIN_WORD_LENGTH")
	}
	switch c.OCREngine {
	case EngineTesseract, EngineVision, EngineDocumentAI:
	default:
		return fmt.Errorf("unknown OCR_ENGINE %q (tesseract, vision, documentai)", c.OCREngine)
	}
	switch c.Rasterizer {
	case RasterizerMuPDF, RasterizerPoppler:
	default:
		return fmt.Errorf("unknown RASTERIZER %q (mupdf, pdftoppm)", c.Rasterizer)
	}
	if c.RasterDPI < 72 || c.RasterDPI > 1200 {
		return fmt.Errorf("RASTER_DPI must be between 72 and 1200, got %d", c.RasterDPI)
	}
	if c.BatchWorkers < 1 {
		return fmt.Errorf("BATCH_WORKERS must be at least 1")
	}
	if c.SearchLimit < 1 {
		return fmt.Errorf("SEARCH_LIMIT must be at least 1")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// OCRLanguages splits the Tesseract language setting ("por+eng") into codes.
func (c *Config) OCRLanguages() []string {
	var langs []string
	for _, l := range strings.Split(c.OCRLanguage, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	return langs
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
