// Package config loads runtime configuration for the CarFinder client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. CARFINDER_* environment variables, then the .env file (or the file
//     given with -env). See parseEnv.
//  3. Optional JSON file selected via -c or -config (see parseJson).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "backend": "rest",
//	  "base_url": "https://project.supabase.co",
//	  "anon_key": "public-anon-key",
//	  "request_timeout": "30s",
//	  "session_db_path": "carfinder.db",
//	  "metrics_addr": ":9100",
//	  "log_level": "debug"
//	}
//
// Self-hosted keys: database_dsn, secret_key, access_token_validity_duration,
// s3_root_user, s3_root_password, s3_region, s3_base_endpoint,
// s3_public_base_url.
package config
