// Package config provides runtime configuration values for the service.
//
// Values come from environment variables. A .env file in the working
// directory is loaded first (existing variables win), and an optional TOML
// file named by RECIPEBOX_CONFIG supplies defaults for anything the
// environment leaves unset.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// FileEnv names the environment variable holding the optional TOML file path.
const FileEnv = "RECIPEBOX_CONFIG"

// DefaultEdamamEndpoint is the Edamam nutrition analysis endpoint.
const DefaultEdamamEndpoint = "https://api.edamam.com/api/nutrition-details"

// Config holds configuration knobs for HTTP server, storage and workers.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string

	DBPath      string
	SeedRecipes bool

	Greeting    string
	CSRFSecret  string
	CORSOrigins []string
	ServingsMin int
	ServingsMax int

	EdamamAppID    string
	EdamamAPIKey   string
	EdamamEndpoint string
	EdamamRPS      float64

	InitialWorkerCount      int
	WorkerMin               int
	WorkerMax               int
	ScaleInterval           time.Duration
	ScaleUpBacklogPerWorker int
	ScaleDownIdleTicks      int
	QueueHighWatermark      int
}

// NutritionEnabled reports whether Edamam credentials are configured.
func (c Config) NutritionEnabled() bool {
	return c.EdamamAppID != "" && c.EdamamAPIKey != ""
}

type source struct {
	file map[string]string
}

func (s source) getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := s.file[strings.ToLower(key)]; ok && v != "" {
		return v
	}
	return def
}

func (s source) atoienv(key string, def int) int {
	v := s.getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (s source) atofenv(key string, def float64) float64 {
	v := s.getenv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func (s source) boolenv(key string, def bool) bool {
	v := s.getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func (s source) listenv(key string, def []string) []string {
	v := s.getenv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s source) durenvms(key string, defMs int) time.Duration {
	ms := s.atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func (s source) durenvs(key string, defSec int) time.Duration {
	sec := s.atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// Load collects configuration from .env, the optional TOML file and the
// environment, with defaults.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	src := source{}
	if path := os.Getenv(FileEnv); path != "" {
		m, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		src.file = m
	}
	return src.load(), nil
}

func (s source) load() Config {
	minWorkers := s.atoienv("WORKER_MIN", 1)
	maxWorkers := s.atoienv("WORKER_MAX", 4)
	initialWorkers := s.atoienv("WORKER_COUNT", minWorkers)
	return Config{
		HTTPAddr:                s.getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:         s.durenvs("SHUTDOWN_TIMEOUT", 15),
		LogLevel:                s.getenv("LOG_LEVEL", "info"),
		DBPath:                  s.getenv("DB_PATH", ""),
		SeedRecipes:             s.boolenv("SEED_RECIPES", true),
		Greeting:                s.getenv("GREETING", "Hello from the recipe box!"),
		CSRFSecret:              s.getenv("CSRF_SECRET", ""),
		CORSOrigins:             s.listenv("CORS_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
		ServingsMin:             s.atoienv("SERVINGS_MIN", 1),
		ServingsMax:             s.atoienv("SERVINGS_MAX", 10),
		EdamamAppID:             s.getenv("EDAMAM_APP_ID", ""),
		EdamamAPIKey:            s.getenv("EDAMAM_API_KEY", ""),
		EdamamEndpoint:          s.getenv("EDAMAM_ENDPOINT", DefaultEdamamEndpoint),
		EdamamRPS:               s.atofenv("EDAMAM_RPS", 1),
		InitialWorkerCount:      initialWorkers,
		WorkerMin:               minWorkers,
		WorkerMax:               maxWorkers,
		ScaleInterval:           s.durenvms("SCALE_INTERVAL_MS", 500),
		ScaleUpBacklogPerWorker: s.atoienv("SCALE_UP_BACKLOG_PER_WORKER", 10),
		ScaleDownIdleTicks:      s.atoienv("SCALE_DOWN_IDLE_TICKS", 6),
		QueueHighWatermark:      s.atoienv("QUEUE_HIGH_WATERMARK", 1000),
	}
}

// readFile parses a flat TOML file. Keys are the lower-cased variable names,
// e.g. http_addr = ":9090".
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case []any:
			parts := make([]string, 0, len(tv))
			for _, p := range tv {
				parts = append(parts, fmt.Sprint(p))
			}
			out[strings.ToLower(k)] = strings.Join(parts, ",")
		case map[string]any:
			// tables are not part of the format
		default:
			out[strings.ToLower(k)] = fmt.Sprint(tv)
		}
	}
	return out, nil
}
