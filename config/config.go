// Package config loads service settings from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/dbxquery/dbxquery/core"
)

const DefaultPort = "8001"

type WarehouseConfig struct {
	Type        string `json:"type,omitempty" koanf:"type"`
	URL         string `json:"url,omitempty" koanf:"url"`
	Host        string `json:"host,omitempty" koanf:"host"`
	WarehouseID string `json:"warehouse_id,omitempty" koanf:"warehouse_id"`
	Profile     string `json:"profile,omitempty" koanf:"profile"`
	Catalog     string `json:"catalog,omitempty" koanf:"catalog"`
	Schema      string `json:"schema,omitempty" koanf:"schema"`
}

type HTTPConfig struct {
	// Address takes precedence over Port when set.
	Address        string   `json:"address,omitempty" koanf:"address"`
	Port           string   `json:"port,omitempty" koanf:"port"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" koanf:"allowed_origins"`
}

type LogConfig struct {
	Level       string `json:"level,omitempty" koanf:"level"`
	Development bool   `json:"development,omitempty" koanf:"development"`
}

type Config struct {
	Warehouse WarehouseConfig `json:"warehouse,omitempty" koanf:"warehouse"`
	HTTP      HTTPConfig      `json:"http,omitempty" koanf:"http"`
	Log       LogConfig       `json:"log,omitempty" koanf:"log"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Warehouse: WarehouseConfig{
			Type: "databricks",
		},
		HTTP: HTTPConfig{
			Port:           DefaultPort,
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// envKeys maps the recognized environment variables to config keys.
var envKeys = map[string]string{
	"DATABRICKS_PROFILE":          "warehouse.profile",
	"DATABRICKS_HOST":             "warehouse.host",
	"DATABRICKS_SQL_WAREHOUSE_ID": "warehouse.warehouse_id",
	"DATABRICKS_CATALOG":          "warehouse.catalog",
	"DATABRICKS_SCHEMA":           "warehouse.schema",
	"WAREHOUSE_TYPE":              "warehouse.type",
	"WAREHOUSE_URL":               "warehouse.url",
	"API_ADDRESS":                 "http.address",
	"API_PORT":                    "http.port",
	"CORS_ALLOWED_ORIGINS":        "http.allowed_origins",
	"LOG_LEVEL":                   "log.level",
	"LOG_DEVELOPMENT":             "log.development",
}

func envValue(name, value string) (string, any) {
	key, ok := envKeys[name]
	if !ok || strings.TrimSpace(value) == "" {
		return "", nil
	}

	if key == "http.allowed_origins" {
		var origins []string
		for _, o := range strings.Split(value, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		return key, origins
	}

	return key, strings.TrimSpace(value)
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment are used.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("k.Unmarshal: %w", err)
	}

	return &cfg, nil
}

// ListenAddress returns the address the HTTP server binds to.
func (c *HTTPConfig) ListenAddress() string {
	if c.Address != "" {
		return c.Address
	}
	port := c.Port
	if port == "" {
		port = DefaultPort
	}
	return ":" + port
}

// ConnectionParams converts the warehouse settings for core.NewConnection.
func (c *Config) ConnectionParams() *core.ConnectionParams {
	w := c.Warehouse
	return &core.ConnectionParams{
		Name:        "warehouse",
		Type:        w.Type,
		URL:         w.URL,
		Host:        w.Host,
		WarehouseID: w.WarehouseID,
		Profile:     w.Profile,
		Catalog:     w.Catalog,
		Schema:      w.Schema,
	}
}
