package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/socialid/internal/flagx"
	"github.com/dmitrijs2005/socialid/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations use
// timex.Duration so both "1s" and integer nanoseconds are accepted.
type FileConfig struct {
	EndpointAddrGRPC       string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	EndpointAddrHTTP       string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN            string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey              string         `json:"secret_key" yaml:"secret_key"`
	RedisAddr              string         `json:"redis_addr" yaml:"redis_addr"`
	RedisPassword          string         `json:"redis_password" yaml:"redis_password"`
	FollowingTTL           timex.Duration `json:"following_ttl" yaml:"following_ttl"`
	TwitterBearerToken     string         `json:"twitter_bearer_token" yaml:"twitter_bearer_token"`
	TwitterBaseURL         string         `json:"twitter_base_url" yaml:"twitter_base_url"`
	RedditClientID         string         `json:"reddit_client_id" yaml:"reddit_client_id"`
	RedditClientSecret     string         `json:"reddit_client_secret" yaml:"reddit_client_secret"`
	RedditBaseURL          string         `json:"reddit_base_url" yaml:"reddit_base_url"`
	RedditTokenURL         string         `json:"reddit_token_url" yaml:"reddit_token_url"`
	FacebookAccessToken    string         `json:"facebook_access_token" yaml:"facebook_access_token"`
	FacebookBaseURL        string         `json:"facebook_base_url" yaml:"facebook_base_url"`
	PlatformTimeout        timex.Duration `json:"platform_timeout" yaml:"platform_timeout"`
	PlatformRPS            float64        `json:"platform_rps" yaml:"platform_rps"`
	ProfileRefreshSchedule string         `json:"profile_refresh_schedule" yaml:"profile_refresh_schedule"`
	LogFormat              string         `json:"log_format" yaml:"log_format"`
}

// parseFile overlays config with the file named by -c/-config (or the
// SOCIALID_CONFIG variable). Keys missing from the file keep their current
// value. Files ending in .yaml/.yml are read as YAML, anything else as JSON.
// An unreadable or malformed file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFilePath(os.Args[1:], "SOCIALID_CONFIG")
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := toFile(config)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fromFile(config, fc)
}

func toFile(c *Config) *FileConfig {
	return &FileConfig{
		EndpointAddrGRPC:       c.EndpointAddrGRPC,
		EndpointAddrHTTP:       c.EndpointAddrHTTP,
		DatabaseDSN:            c.DatabaseDSN,
		SecretKey:              c.SecretKey,
		RedisAddr:              c.RedisAddr,
		RedisPassword:          c.RedisPassword,
		FollowingTTL:           timex.Duration{Duration: c.FollowingTTL},
		TwitterBearerToken:     c.TwitterBearerToken,
		TwitterBaseURL:         c.TwitterBaseURL,
		RedditClientID:         c.RedditClientID,
		RedditClientSecret:     c.RedditClientSecret,
		RedditBaseURL:          c.RedditBaseURL,
		RedditTokenURL:         c.RedditTokenURL,
		FacebookAccessToken:    c.FacebookAccessToken,
		FacebookBaseURL:        c.FacebookBaseURL,
		PlatformTimeout:        timex.Duration{Duration: c.PlatformTimeout},
		PlatformRPS:            c.PlatformRPS,
		ProfileRefreshSchedule: c.ProfileRefreshSchedule,
		LogFormat:              c.LogFormat,
	}
}

func fromFile(c *Config, f *FileConfig) {
	c.EndpointAddrGRPC = f.EndpointAddrGRPC
	c.EndpointAddrHTTP = f.EndpointAddrHTTP
	c.DatabaseDSN = f.DatabaseDSN
	c.SecretKey = f.SecretKey
	c.RedisAddr = f.RedisAddr
	c.RedisPassword = f.RedisPassword
	c.FollowingTTL = f.FollowingTTL.Duration
	c.TwitterBearerToken = f.TwitterBearerToken
	c.TwitterBaseURL = f.TwitterBaseURL
	c.RedditClientID = f.RedditClientID
	c.RedditClientSecret = f.RedditClientSecret
	c.RedditBaseURL = f.RedditBaseURL
	c.RedditTokenURL = f.RedditTokenURL
	c.FacebookAccessToken = f.FacebookAccessToken
	c.FacebookBaseURL = f.FacebookBaseURL
	c.PlatformTimeout = f.PlatformTimeout.Duration
	c.PlatformRPS = f.PlatformRPS
	c.ProfileRefreshSchedule = f.ProfileRefreshSchedule
	c.LogFormat = f.LogFormat
}
