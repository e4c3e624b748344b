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
		Debug    bool
		TestMode bool
		Env      string // DEV (default), TEST, QA, PROD
		Build    string
		AppName  string

		SecretKey        []byte
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridAPIKey   string
		RollbarToken     string

		Client ClientConfig
		Server ServerConfig
		DB     DBConfig
	}

	// ClientConfig holds everything the portal shell and its session core need.
	ClientConfig struct {
		APIBaseURL     string
		CredentialsDir string
		// MockTokenPrefix marks a stored access token as a development token:
		// the bootstrap sequencer trusts it without calling the server.
		MockTokenPrefix string
		// VerifyTimeout bounds the startup session-verification call so a hung
		// backend degrades to Unauthenticated instead of blocking forever.
		VerifyTimeout time.Duration
	}

	ServerConfig struct {
		Host                      string
		Addr                      string
		DebugHost                 string
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		InviteTimeoutDelta        time.Duration
		ShutdownTimeout           time.Duration
	}

	DBConfig struct {
		Host       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "f2luq%x$1m)9c&xzp*dyw(7h5n!8#_s0ke@4v6gj+3rba-teo=")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("client.apiBaseURL", "http://localhost:8000")
	v.SetDefault("client.credentialsDir", defaultCredentialsDir())
	v.SetDefault("client.mockTokenPrefix", "mock-jwt-token-")
	v.SetDefault("client.verifyTimeout", 15*time.Second)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugHost", "localhost:9000")
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.inviteTimeoutDelta", 7*24*time.Hour)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.name", "darasa")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.disableTLS", true)

	env := os.Getenv("ENV")
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        []byte(v.GetString("secretKey")),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{Address: v.GetString("defaultFromEmail")},
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Client: ClientConfig{
			APIBaseURL:      v.GetString("client.apiBaseURL"),
			CredentialsDir:  v.GetString("client.credentialsDir"),
			MockTokenPrefix: v.GetString("client.mockTokenPrefix"),
			VerifyTimeout:   v.GetDuration("client.verifyTimeout"),
		},
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Addr:                      v.GetString("server.addr"),
			DebugHost:                 v.GetString("server.debugHost"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			InviteTimeoutDelta:        v.GetDuration("server.inviteTimeoutDelta"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
		},
		DB: DBConfig{
			Host:       v.GetString("db.host"),
			Name:       v.GetString("db.name"),
			User:       v.GetString("db.user"),
			Password:   v.GetString("db.password"),
			DisableTLS: v.GetBool("db.disableTLS"),
		},
	}
}

func defaultCredentialsDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "darasa")
}
