package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/gophagenda/internal/flagx"
)

// parseFlags overlays command-line flags.
//
//	-a string     listen address (":8443")
//	-d string     PostgreSQL DSN
//	-l string     log level (debug, info, warn, error)
//	-tls-cert     TLS certificate file
//	-tls-key      TLS key file
//	-rl-points    rate-limit points per period
//	-rl-period    rate-limit refill period ("15m")
//	-b string     S3 bucket for exports (empty disables export)
//	-e string     S3 base endpoint
//	-u / -p       S3 credentials
//	-g string     S3 region
func parseFlags(config *Config) {
	parseFlagArgs(config, os.Args[1:])
}

func parseFlagArgs(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{
		"-a", "-d", "-l", "-tls-cert", "-tls-key", "-rl-points", "-rl-period", "-b", "-e", "-u", "-p", "-g",
	})

	fs := flag.NewFlagSet("relay", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to listen on")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.TLSCertFile, "tls-cert", config.TLSCertFile, "TLS certificate file")
	fs.StringVar(&config.TLSKeyFile, "tls-key", config.TLSKeyFile, "TLS key file")
	fs.IntVar(&config.RateLimitPoints, "rl-points", config.RateLimitPoints, "rate-limit points per period")
	fs.DurationVar(&config.RateLimitPeriod, "rl-period", config.RateLimitPeriod, "rate-limit period")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 export bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 password")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
