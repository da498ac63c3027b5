package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/carfinder/internal/flagx"
	"github.com/dmitrijs2005/carfinder/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration so they can be written as "30s" or integer nanoseconds.
// Absent keys leave the current value alone.
type JsonConfig struct {
	Backend                     *string         `json:"backend"`
	BaseURL                     *string         `json:"base_url"`
	AnonKey                     *string         `json:"anon_key"`
	RequestTimeout              *timex.Duration `json:"request_timeout"`
	SessionDBPath               *string         `json:"session_db_path"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	S3PublicBaseURL             *string         `json:"s3_public_base_url"`
	MetricsAddr                 *string         `json:"metrics_addr"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJson overlays cfg with the JSON file named by -c or -config. Without
// either flag nothing is loaded. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&cfg.Backend, jc.Backend)
	set(&cfg.BaseURL, jc.BaseURL)
	set(&cfg.AnonKey, jc.AnonKey)
	set(&cfg.SessionDBPath, jc.SessionDBPath)
	set(&cfg.DatabaseDSN, jc.DatabaseDSN)
	set(&cfg.SecretKey, jc.SecretKey)
	set(&cfg.S3RootUser, jc.S3RootUser)
	set(&cfg.S3RootPassword, jc.S3RootPassword)
	set(&cfg.S3Region, jc.S3Region)
	set(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	set(&cfg.S3PublicBaseURL, jc.S3PublicBaseURL)
	set(&cfg.MetricsAddr, jc.MetricsAddr)
	set(&cfg.LogLevel, jc.LogLevel)

	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = jc.AccessTokenValidityDuration.Duration
	}
}
