package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/carfinder/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-b string   backend: rest or direct
//	-u string   hosted backend base URL
//	-k string   hosted backend anon key
//	-t int      request timeout, seconds
//	-s string   session sqlite file
//	-d string   PostgreSQL DSN (direct)
//	-x string   token secret key (direct)
//	-v int      access token validity, minutes (direct)
//	-U string   S3 root user
//	-P string   S3 root password
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-p string   public base URL of stored objects
//	-m string   metrics listen address
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs so -c/-config and -env stay
// with their own parsers.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-b", "-u", "-k", "-t", "-s", "-d", "-x", "-v", "-U", "-P", "-g", "-e", "-p", "-m", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "backend: rest or direct")
	fs.StringVar(&cfg.BaseURL, "u", cfg.BaseURL, "hosted backend base URL")
	fs.StringVar(&cfg.AnonKey, "k", cfg.AnonKey, "hosted backend anon key")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.SessionDBPath, "s", cfg.SessionDBPath, "session database file")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "x", cfg.SecretKey, "secret key")
	accessTokenValidity := fs.Int("v", int(cfg.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&cfg.S3RootUser, "U", cfg.S3RootUser, "S3 root user")
	fs.StringVar(&cfg.S3RootPassword, "P", cfg.S3RootPassword, "S3 root password")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3PublicBaseURL, "p", cfg.S3PublicBaseURL, "public base URL of stored objects")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	cfg.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
}
