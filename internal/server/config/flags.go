package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/flagx"
)

var serverFlags = []string{"-a", "-m", "-d", "-s", "-t", "-i", "-w", "-o", "-u", "-p", "-b", "-g", "-e", "-x", "-n", "-l", "-f"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-m string   metrics bind address (e.g., ":9090")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-i int      sweep interval, minutes
//	-w int      sweep concurrency (owners in parallel)
//	-o int      per-owner sweep timeout, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-x int      presigned URL expiry, minutes
//	-n string   trustee notification webhook URL
//	-l string   log level (debug, info, warn, error)
//	-f string   log format (json, text)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so subcommand names and flags owned by other components
// do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port for metrics")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	sweepInterval := fs.Int("i", int(config.SweepInterval.Minutes()), "sweep interval (in minutes)")
	fs.IntVar(&config.SweepConcurrency, "w", config.SweepConcurrency, "owners processed in parallel by a sweep")
	sweepOwnerTimeout := fs.Int("o", int(config.SweepOwnerTimeout.Seconds()), "per-owner sweep timeout (in seconds)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	presignExpiry := fs.Int("x", int(config.PresignExpiry.Minutes()), "presigned URL expiry (in minutes)")
	fs.StringVar(&config.NotifyWebhookURL, "n", config.NotifyWebhookURL, "notification webhook URL")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Duration flags are whole units; only the ones actually passed replace
	// what defaults or the JSON file set, so "30s" from JSON survives.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "i":
			config.SweepInterval = time.Duration(*sweepInterval) * time.Minute
		case "o":
			config.SweepOwnerTimeout = time.Duration(*sweepOwnerTimeout) * time.Second
		case "x":
			config.PresignExpiry = time.Duration(*presignExpiry) * time.Minute
		}
	})
}
