// Package config loads static application metadata and runtime settings
// from the environment. A .env file is honored when present so local
// development mirrors deployed configuration.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Contact identifies the team responsible for the API.
type Contact struct {
	Name  string
	URL   string
	Email string
}

// License describes the license published in the OpenAPI document.
type License struct {
	Name string
	URL  string
}

// Tag is OpenAPI tag metadata for a route group.
type Tag struct {
	Name        string
	Description string
}

// AppConfig is the application identity rendered into the OpenAPI document.
type AppConfig struct {
	Name        string
	Title       string
	Version     string
	Description string
}

// APIConfig holds the router-level constructor options: where the docs are
// served, the mount prefix the application sits behind, and the document
// metadata blocks.
type APIConfig struct {
	DocsPath       string
	RootPath       string
	TermsOfService string
	Contact        Contact
	License        License
	Tags           []Tag
	AllowedOrigins []string
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds SQLite settings for the session provider.
type DatabaseConfig struct {
	Path        string
	WALMode     bool
	BusyTimeout int
}

// BrokerConfig holds task-broker client settings. WorkerProcess marks this
// process as a background worker rather than the API server, in which case
// the application does not own the broker lifecycle.
type BrokerConfig struct {
	Addr          string
	Password      string
	DB            int
	Queue         string
	WorkerProcess bool
}

// Config is the root configuration object, loaded once at process start.
type Config struct {
	App      AppConfig
	API      APIConfig
	Server   ServerConfig
	Database DatabaseConfig
	Broker   BrokerConfig
}

const apiDescription = `This project provides a reference API, the aim of the project is:

- To maintain a good known source of habits
- Demonstrate how applications are meant to be put together at Anomaly
- Democratize design of robust API
`

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win over file contents.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		App: AppConfig{
			Name:        envString("LABS_APP_NAME", "labs-api"),
			Title:       envString("LABS_APP_TITLE", "Labs API"),
			Version:     envString("LABS_APP_VERSION", ""),
			Description: envString("LABS_APP_DESCRIPTION", apiDescription),
		},
		API: APIConfig{
			DocsPath:       envString("LABS_API_DOCS_PATH", "/docs"),
			RootPath:       envString("LABS_API_ROOT_PATH", ""),
			TermsOfService: envString("LABS_API_TERMS_OF_SERVICE", ""),
			Contact: Contact{
				Name:  envString("LABS_API_CONTACT_NAME", "Anomaly Software"),
				URL:   envString("LABS_API_CONTACT_URL", "https://www.anomaly.ltd"),
				Email: envString("LABS_API_CONTACT_EMAIL", "support@anomaly.ltd"),
			},
			License: License{
				Name: envString("LABS_API_LICENSE_NAME", "Apache 2.0"),
				URL:  envString("LABS_API_LICENSE_URL", "https://www.apache.org/licenses/LICENSE-2.0.html"),
			},
			Tags: []Tag{
				{Name: "ext", Description: "Diagnostic endpoints for uptime and observability checks."},
			},
			AllowedOrigins: envList("LABS_API_ALLOWED_ORIGINS", []string{"*"}),
		},
		Server: ServerConfig{
			Port: envString("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Path:        envString("LABS_DB_PATH", "data/labs.db"),
			WALMode:     envBool("LABS_DB_WAL", true),
			BusyTimeout: envInt("LABS_DB_BUSY_TIMEOUT", 5),
		},
		Broker: BrokerConfig{
			Addr:          envString("LABS_BROKER_ADDR", "localhost:6379"),
			Password:      envString("LABS_BROKER_PASSWORD", ""),
			DB:            envInt("LABS_BROKER_DB", 0),
			Queue:         envString("LABS_BROKER_QUEUE", "labs:tasks"),
			WorkerProcess: envBool("LABS_WORKER_PROCESS", false),
		},
	}
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return parsed
}

func envList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
