package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime settings for the server and CLI.
type Config struct {
	Port               string   `yaml:"port"`
	DBPath             string   `yaml:"dbPath"`
	Env                string   `yaml:"env"`
	EncryptionKey      string   `yaml:"encryptionKey"`
	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins"`
	DefaultEventColor  string   `yaml:"defaultEventColor"`
	BcryptCost         int      `yaml:"bcryptCost"`
	SeedTestData       bool     `yaml:"seedTestData"`

	Firebase  FirebaseConfig  `yaml:"firebase"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TelemetryConfig controls trace export. Without an endpoint spans are
// sampled and dropped in process.
type TelemetryConfig struct {
	ServiceName string  `yaml:"serviceName"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	Required    bool    `yaml:"required"`
	SampleRatio float64 `yaml:"sampleRatio"`
}

// FirebaseConfig carries service account credentials. All fields are optional;
// without credentials the auth middleware runs in development mode.
type FirebaseConfig struct {
	ProjectID             string `yaml:"projectId"`
	ServiceAccountJSON    string `yaml:"serviceAccountJson"`
	ServiceAccountBase64  string `yaml:"serviceAccountBase64"`
	ServiceAccountEnvJSON string `yaml:"-"`
}

const devEncryptionKey = "default-key-for-development-only"

// Default returns the configuration used when no file or env vars are present.
func Default() Config {
	return Config{
		Port:              "8080",
		DBPath:            "./ourlife.db",
		Env:               "development",
		DefaultEventColor: "#3b82f6",
		BcryptCost:        10,
		Telemetry: TelemetryConfig{
			ServiceName: "ourlife-api",
			SampleRatio: 1,
		},
		CORSAllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:3000",
			"http://localhost:8080",
		},
	}
}

// Load reads the YAML file at path (if non-empty) over the defaults and then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.EncryptionKey == "" {
		if cfg.IsProduction() {
			return Config{}, fmt.Errorf("ENCRYPTION_KEY must be set in production")
		}
		log.Println("Warning: ENCRYPTION_KEY not set, using a default key. This is NOT secure for production!")
		cfg.EncryptionKey = devEncryptionKey
	}

	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Config{}, fmt.Errorf("invalid bcrypt cost %d", cfg.BcryptCost)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	} else if os.Getenv("FLY_APP_NAME") != "" {
		// Fly.io mounts the persistent volume at /data
		cfg.DBPath = "/data/ourlife.db"
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("ENCRYPTION_KEY"); v != "" {
		cfg.EncryptionKey = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORSAllowedOrigins = origins
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BcryptCost = n
		} else {
			log.Printf("Ignoring invalid BCRYPT_COST %q: %v", v, err)
		}
	}
	if v := os.Getenv("SEED_TEST_DATA"); v != "" {
		cfg.SeedTestData = v == "true"
	}
	if v := os.Getenv("FIREBASE_PROJECT_ID"); v != "" {
		cfg.Firebase.ProjectID = v
	}
	if v := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); v != "" {
		cfg.Firebase.ServiceAccountJSON = v
	}
	if v := os.Getenv("FIREBASE_SERVICE_ACCOUNT_BASE64"); v != "" {
		cfg.Firebase.ServiceAccountBase64 = v
	}
	cfg.Firebase.ServiceAccountEnvJSON = os.Getenv("FIREBASE_SERVICE_ACCOUNT")

	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		cfg.Telemetry.ServiceName = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.Endpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"); v != "" {
		cfg.Telemetry.Insecure = v == "true"
	}
	if v := os.Getenv("OTEL_REQUIRED"); v != "" {
		cfg.Telemetry.Required = v == "true"
	}
	if v := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Telemetry.SampleRatio = f
		} else {
			log.Printf("Ignoring invalid OTEL_TRACES_SAMPLER_ARG %q: %v", v, err)
		}
	}
}

// IsProduction reports whether the server runs with production settings.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevelopment mirrors the CORS middleware's notion of a dev environment.
func (c Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development" || c.Env == "dev"
}
