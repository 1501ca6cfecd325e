package config

import (
	"flag"
	"time"

	"github.com/dominiquedave/Time-Financial/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-t", "-r", "-x", "-k", "-secure", "-z", "-u", "-p", "-b", "-g", "-e"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-d string     PostgreSQL DSN
//	-s string     JWT HMAC secret key
//	-t int        access token validity, minutes
//	-r int        refresh token validity, minutes
//	-x duration   access gate lookup timeout (e.g., "3s")
//	-k string     CSRF key (32 bytes)
//	-secure bool  Secure session cookies
//	-z string     timezone (IANA name)
//	-u string     S3 root user
//	-p string     S3 root password
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 base endpoint
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.DurationVar(&config.GateTimeout, "x", config.GateTimeout, "access gate lookup timeout")
	fs.StringVar(&config.CSRFKey, "k", config.CSRFKey, "CSRF authentication key")
	fs.BoolVar(&config.SecureCookies, "secure", config.SecureCookies, "secure cookies")
	fs.StringVar(&config.Timezone, "z", config.Timezone, "timezone")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
	return nil
}
