package config

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/credstack/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-l string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-i int      scheduler poll interval, seconds
//	-n string   notify driver (log, amqp, nats, redis)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name (empty disables the receipt archive)
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-v string   log level
//
// Only the flags listed here are parsed from os.Args (see flagx.FilterArgs),
// so -c/-config (parseJson) and -automation (parseAutomationFlag) do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-l", "-d", "-s", "-t", "-i", "-n", "-u", "-p", "-b", "-g", "-e", "-v",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "l", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	schedulerInterval := fs.Int("i", int(config.SchedulerInterval.Seconds()), "scheduler poll interval (in seconds)")

	fs.StringVar(&config.NotifyDriver, "n", config.NotifyDriver, "notify driver")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 receipts bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.SchedulerInterval = time.Duration(*schedulerInterval) * time.Second
}

// parseAutomationFlag picks up -automation <file> (YAML, JSON or TOML).
func parseAutomationFlag(config *Config) {
	if f := flagx.AutomationConfigFlags(); f != "" {
		config.AutomationConfigFile = f
	}
}
