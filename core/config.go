package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug             bool
		TestMode          bool
		Env               string // DEV (default), TEST, QA, PROD
		Build             string
		AppName           string
		SecretKey         string
		AdminPasswordHash string
		DefaultFromEmail  mail.Address
		SendgridApiKey    string
		RollbarToken      string

		Server   serverConfig
		Sheets   sheetsConfig
		Cache    cacheConfig
		Database databaseConfig
		Sync     syncConfig
	}

	serverConfig struct {
		Host               string
		Addr               string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	// sheetsConfig points at the spreadsheet-backed persistence endpoint:
	// a single URL answering GET for the full document and POST for a sync.
	sheetsConfig struct {
		URL     string
		Timeout time.Duration
	}

	cacheConfig struct {
		File string
	}

	databaseConfig struct {
		URL       string        // optional; enables the Postgres snapshot archive
		Retention time.Duration // snapshot history kept by the archive
	}

	syncConfig struct {
		Debounce time.Duration
	}
)

var Conf *Config

func init() {
	Conf = NewConfig()
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "ClubReg")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "x6bq#0d$e+*5ch2(h!x)#*c2(#yg4h^$cegm2emy-w3r)9nb")
	v.SetDefault("adminPasswordHash", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("serverHost", hostname())
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("shutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("sheetsURL", "")
	v.SetDefault("sheetsTimeout", 10*time.Second)
	v.SetDefault("cacheFile", filepath.Join(os.TempDir(), "clubreg_cache.json"))
	v.SetDefault("databaseURL", "")
	v.SetDefault("databaseRetention", 30*24*time.Hour)
	v.SetDefault("syncDebounce", 2*time.Second)

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:             v.GetBool("debug"),
		TestMode:          v.GetBool("testMode"),
		Env:               env,
		Build:             v.GetString("build"),
		AppName:           v.GetString("appName"),
		SecretKey:         v.GetString("secretKey"),
		AdminPasswordHash: v.GetString("adminPasswordHash"),
		DefaultFromEmail:  mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		SendgridApiKey:    v.GetString("sendgridApiKey"),
		RollbarToken:      v.GetString("rollbarToken"),
		Server: serverConfig{
			Host:               v.GetString("serverHost"),
			Addr:               v.GetString("serverAddr"),
			ShutdownTimeout:    v.GetDuration("shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		},
		Sheets: sheetsConfig{
			URL:     v.GetString("sheetsURL"),
			Timeout: v.GetDuration("sheetsTimeout"),
		},
		Cache: cacheConfig{
			File: v.GetString("cacheFile"),
		},
		Database: databaseConfig{
			URL:       v.GetString("databaseURL"),
			Retention: v.GetDuration("databaseRetention"),
		},
		Sync: syncConfig{
			Debounce: v.GetDuration("syncDebounce"),
		},
	}
}

func hostname() string {
	host, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return host
}
