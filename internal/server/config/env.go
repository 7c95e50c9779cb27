package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// envConfig maps SOCIALID_* variables onto Config fields.
type envConfig struct {
	EndpointAddrGRPC       string        `env:"SOCIALID_GRPC_ADDR"`
	EndpointAddrHTTP       string        `env:"SOCIALID_HTTP_ADDR"`
	DatabaseDSN            string        `env:"SOCIALID_DATABASE_DSN"`
	SecretKey              string        `env:"SOCIALID_SECRET_KEY"`
	RedisAddr              string        `env:"SOCIALID_REDIS_ADDR"`
	RedisPassword          string        `env:"SOCIALID_REDIS_PASSWORD"`
	FollowingTTL           time.Duration `env:"SOCIALID_FOLLOWING_TTL"`
	TwitterBearerToken     string        `env:"SOCIALID_TWITTER_BEARER_TOKEN"`
	RedditClientID         string        `env:"SOCIALID_REDDIT_CLIENT_ID"`
	RedditClientSecret     string        `env:"SOCIALID_REDDIT_CLIENT_SECRET"`
	FacebookAccessToken    string        `env:"SOCIALID_FACEBOOK_ACCESS_TOKEN"`
	PlatformTimeout        time.Duration `env:"SOCIALID_PLATFORM_TIMEOUT"`
	PlatformRPS            float64       `env:"SOCIALID_PLATFORM_RPS"`
	ProfileRefreshSchedule string        `env:"SOCIALID_PROFILE_REFRESH_SCHEDULE"`
	LogFormat              string        `env:"SOCIALID_LOG_FORMAT"`
}

// parseEnv loads an optional dotenv file (SOCIALID_ENV_FILE, default
// ".env") into the process environment and overlays SOCIALID_* variables.
// Variables that are not set leave the corresponding field untouched.
func parseEnv(config *Config) {
	envFile := os.Getenv("SOCIALID_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	ec := &envConfig{
		EndpointAddrGRPC:       config.EndpointAddrGRPC,
		EndpointAddrHTTP:       config.EndpointAddrHTTP,
		DatabaseDSN:            config.DatabaseDSN,
		SecretKey:              config.SecretKey,
		RedisAddr:              config.RedisAddr,
		RedisPassword:          config.RedisPassword,
		FollowingTTL:           config.FollowingTTL,
		TwitterBearerToken:     config.TwitterBearerToken,
		RedditClientID:         config.RedditClientID,
		RedditClientSecret:     config.RedditClientSecret,
		FacebookAccessToken:    config.FacebookAccessToken,
		PlatformTimeout:        config.PlatformTimeout,
		PlatformRPS:            config.PlatformRPS,
		ProfileRefreshSchedule: config.ProfileRefreshSchedule,
		LogFormat:              config.LogFormat,
	}

	if err := envdecode.Decode(ec); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return
		}
		panic(err)
	}

	config.EndpointAddrGRPC = ec.EndpointAddrGRPC
	config.EndpointAddrHTTP = ec.EndpointAddrHTTP
	config.DatabaseDSN = ec.DatabaseDSN
	config.SecretKey = ec.SecretKey
	config.RedisAddr = ec.RedisAddr
	config.RedisPassword = ec.RedisPassword
	config.FollowingTTL = ec.FollowingTTL
	config.TwitterBearerToken = ec.TwitterBearerToken
	config.RedditClientID = ec.RedditClientID
	config.RedditClientSecret = ec.RedditClientSecret
	config.FacebookAccessToken = ec.FacebookAccessToken
	config.PlatformTimeout = ec.PlatformTimeout
	config.PlatformRPS = ec.PlatformRPS
	config.ProfileRefreshSchedule = ec.ProfileRefreshSchedule
	config.LogFormat = ec.LogFormat
}
