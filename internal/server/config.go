package server

import (
	"os"
	"time"
)

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Pass     string
	From     string
	Security string
}

type Config struct {
	Addr              string
	MongoURI          string
	MongoDB           string
	UsersCollection   string
	PendingCollection string
	VaultCollection   string
	EncryptionKey     string
	JWTIssuer         string
	TokenTTL          time.Duration
	SMTP              SMTPConfig
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.UsersCollection == "" {
		c.UsersCollection = "users"
	}
	if c.PendingCollection == "" {
		c.PendingCollection = "pending_users"
	}
	if c.VaultCollection == "" {
		c.VaultCollection = "vaults"
	}
	if c.JWTIssuer == "" {
		c.JWTIssuer = "passguard-backend"
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = 7 * 24 * time.Hour
	}
	if c.SMTP.Security == "" {
		c.SMTP.Security = "starttls"
	}
}

// FromEnv builds a Config from the process environment. Values left empty
// fall through to setDefaults; MongoURI and EncryptionKey have no defaults
// and are validated in New.
func FromEnv() Config {
	cfg := Config{
		Addr:              os.Getenv("ADDR"),
		MongoURI:          os.Getenv("MONGO_URI"),
		MongoDB:           os.Getenv("MONGO_DB"),
		UsersCollection:   os.Getenv("USERS_COLLECTION"),
		PendingCollection: os.Getenv("PENDING_COLLECTION"),
		VaultCollection:   os.Getenv("VAULT_COLLECTION"),
		EncryptionKey:     os.Getenv("ENCRYPTION_KEY"),
		JWTIssuer:         os.Getenv("JWT_ISSUER"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     os.Getenv("SMTP_PORT"),
			User:     os.Getenv("SMTP_USER"),
			Pass:     os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
			Security: os.Getenv("SMTP_SECURITY"),
		},
	}
	if cfg.Addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.Addr = ":" + port
		}
	}
	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.TokenTTL = d
		}
	}
	return cfg
}
