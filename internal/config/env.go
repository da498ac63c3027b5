package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/carfinder/internal/flagx"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when no -env flag is given.
const DefaultEnvFile = ".env"

// parseEnv overlays cfg with CARFINDER_* variables. Values come from the
// process environment first and from the env file second; a missing file is
// not an error. SUPABASE_URL and SUPABASE_ANON_KEY are accepted as aliases
// of the base URL and anon key.
//
// Panics when the file exists but cannot be parsed or a duration is invalid.
func parseEnv(cfg *Config) {
	path := flagx.EnvFileFlags()
	if path == "" {
		path = DefaultEnvFile
	}
	applyEnv(cfg, readEnvFile(path))
}

func readEnvFile(path string) map[string]string {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}
	}
	if err != nil {
		panic(err)
	}
	return vars
}

func applyEnv(cfg *Config, file map[string]string) {
	lookup := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				return v, true
			}
		}
		for _, k := range keys {
			if v := file[k]; v != "" {
				return v, true
			}
		}
		return "", false
	}
	str := func(dst *string, keys ...string) {
		if v, ok := lookup(keys...); ok {
			*dst = v
		}
	}
	dur := func(dst *time.Duration, key string) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}

	str(&cfg.Backend, "CARFINDER_BACKEND")
	str(&cfg.BaseURL, "CARFINDER_BASE_URL", "SUPABASE_URL")
	str(&cfg.AnonKey, "CARFINDER_ANON_KEY", "SUPABASE_ANON_KEY")
	dur(&cfg.RequestTimeout, "CARFINDER_REQUEST_TIMEOUT")
	str(&cfg.SessionDBPath, "CARFINDER_SESSION_DB")
	str(&cfg.DatabaseDSN, "CARFINDER_DATABASE_DSN")
	str(&cfg.SecretKey, "CARFINDER_SECRET_KEY")
	dur(&cfg.AccessTokenValidityDuration, "CARFINDER_ACCESS_TOKEN_VALIDITY")
	str(&cfg.S3RootUser, "CARFINDER_S3_ROOT_USER")
	str(&cfg.S3RootPassword, "CARFINDER_S3_ROOT_PASSWORD")
	str(&cfg.S3Region, "CARFINDER_S3_REGION")
	str(&cfg.S3BaseEndpoint, "CARFINDER_S3_BASE_ENDPOINT")
	str(&cfg.S3PublicBaseURL, "CARFINDER_S3_PUBLIC_BASE_URL")
	str(&cfg.MetricsAddr, "CARFINDER_METRICS_ADDR")
	str(&cfg.LogLevel, "CARFINDER_LOG_LEVEL")
}
