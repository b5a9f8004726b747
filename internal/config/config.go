package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
		// PublicBaseURL prefixes locally stored asset URLs; empty keeps them site-relative.
		PublicBaseURL string `yaml:"public_base_url"`
		MaxUploadMB   int    `yaml:"max_upload_mb"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Redis struct {
		URL       string `yaml:"url"`
		KeyPrefix string `yaml:"key_prefix"`
		// DialTimeout and Timeout bound each call against an unreachable server.
		DialTimeout time.Duration `yaml:"dial_timeout"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"redis"`
	Blob struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
		PublicURL string `yaml:"public_url"`
		Prefix    string `yaml:"prefix"`
	} `yaml:"blob"`
	Storage struct {
		DataDir   string `yaml:"data_dir"`
		PublicDir string `yaml:"public_dir"`
	} `yaml:"storage"`
}

// Default returns the configuration used when no file or environment is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.MaxUploadMB = 200
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Redis.DialTimeout = 500 * time.Millisecond
	cfg.Redis.Timeout = time.Second
	cfg.Storage.DataDir = "data"
	cfg.Storage.PublicDir = "public"
	return cfg
}

// Load reads YAML config from path over the defaults, then applies environment
// overrides. A missing file is not an error; a .env file is loaded when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}
	applyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

// applyEnv overlays environment variables. Presence of REDIS_URL or the BLOB_*
// credentials is what selects those backends.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				*dst = strings.TrimSpace(v)
				return
			}
		}
	}
	str(&cfg.Server.Port, "PORT")
	str(&cfg.Server.PublicBaseURL, "PUBLIC_BASE_URL")
	str(&cfg.Log.Level, "LOG_LEVEL")
	str(&cfg.Log.Format, "LOG_FORMAT")
	str(&cfg.Redis.URL, "REDIS_URL", "quiz_REDIS_URL")
	str(&cfg.Redis.KeyPrefix, "REDIS_KEY_PREFIX")
	str(&cfg.Blob.Endpoint, "BLOB_ENDPOINT")
	str(&cfg.Blob.AccessKey, "BLOB_ACCESS_KEY")
	str(&cfg.Blob.SecretKey, "BLOB_SECRET_KEY")
	str(&cfg.Blob.Bucket, "BLOB_BUCKET")
	str(&cfg.Blob.PublicURL, "BLOB_PUBLIC_URL")
	str(&cfg.Blob.Prefix, "BLOB_PREFIX")
	str(&cfg.Storage.DataDir, "DATA_DIR")
	str(&cfg.Storage.PublicDir, "PUBLIC_DIR")

	if v, ok := lookup("BLOB_USE_SSL"); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.Blob.UseSSL = b
		}
	}
	dur := func(dst *time.Duration, key string) {
		if v, ok := lookup(key); ok {
			if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && d > 0 {
				*dst = d
			}
		}
	}
	dur(&cfg.Redis.DialTimeout, "REDIS_DIAL_TIMEOUT")
	dur(&cfg.Redis.Timeout, "REDIS_TIMEOUT")

	if v, ok := lookup("MAX_UPLOAD_MB"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			cfg.Server.MaxUploadMB = n
		}
	}
}

// MaxUploadBytes converts the configured limit to bytes.
func (c Config) MaxUploadBytes() int64 {
	if c.Server.MaxUploadMB <= 0 {
		return 0
	}
	return int64(c.Server.MaxUploadMB) << 20
}
