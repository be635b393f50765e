package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Database: DatabaseConfig{
			Host:   "localhost",
			User:   "test",
			DBName: "test",
		},
		Mail: MailConfig{
			Host: "smtp.example.com",
			From: "noreply@example.com",
		},
		Scheduler: SchedulerConfig{
			IntervalMinutes: 1,
		},
		Auth: AuthConfig{
			JWTSecret: "secret",
		},
		Timezone: "Asia/Kolkata",
	}
}

func TestConfigValidation(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	invalid := &Config{
		Server: ServerConfig{
			Port: "",
		},
	}
	assert.Error(t, invalid.Validate())
}

func TestConfigValidationMailTransports(t *testing.T) {
	// SMTP transport requires host and from address.
	cfg := validConfig()
	cfg.Mail.Host = ""
	assert.Error(t, cfg.Validate())

	// The Gmail API transport ignores SMTP fields but needs OAuth2
	// credentials.
	cfg = validConfig()
	cfg.Mail = MailConfig{
		UseGmailAPI:  true,
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "token",
	}
	assert.NoError(t, cfg.Validate())

	cfg.Mail.RefreshToken = ""
	assert.Error(t, cfg.Validate())
}

func TestConfigValidationScheduler(t *testing.T) {
	cfg := validConfig()
	cfg.Scheduler.IntervalMinutes = 0
	assert.Error(t, cfg.Validate())
}

func TestConfigValidationAuthAndTimezone(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Timezone = ""
	assert.Error(t, cfg.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	config := DatabaseConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	}

	dsn := config.GetDSN()
	expected := "testuser:testpass@tcp(localhost:3306)/testdb?charset=utf8mb4&parseTime=True&loc=Local"
	assert.Equal(t, expected, dsn)
}
