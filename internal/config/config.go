package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string `mapstructure:"PORT"`
	DatabasePath        string `mapstructure:"DATABASE_PATH"`
	DiscordClientID     string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL  string `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordGuildID      string `mapstructure:"DISCORD_GUILD_ID"`
	DiscordBotToken     string `mapstructure:"DISCORD_BOT_TOKEN"`
	BoardRoleID         string `mapstructure:"BOARD_ROLE_ID"`
	JWTSecret           string `mapstructure:"JWT_SECRET"`
	FrontendURL         string `mapstructure:"FRONTEND_URL"`
	MailProviderURL     string `mapstructure:"MAIL_PROVIDER_URL"`
	MailAPIKey          string `mapstructure:"MAIL_API_KEY"`
	MailFrom            string `mapstructure:"MAIL_FROM"`
	MailConcurrency     int    `mapstructure:"MAIL_CONCURRENCY"`
}

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_PATH", "club.db")
	viper.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	viper.SetDefault("FRONTEND_URL", "http://127.0.0.1:4000")
	viper.SetDefault("MAIL_PROVIDER_URL", "https://api.resend.com/emails")
	viper.SetDefault("MAIL_FROM", "rides@clubsite.org")
	viper.SetDefault("MAIL_CONCURRENCY", 4)

	viper.BindEnv("DISCORD_CLIENT_ID")
	viper.BindEnv("DISCORD_CLIENT_SECRET")
	viper.BindEnv("DISCORD_GUILD_ID")
	viper.BindEnv("DISCORD_BOT_TOKEN")
	viper.BindEnv("BOARD_ROLE_ID")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("FRONTEND_URL")
	viper.BindEnv("MAIL_PROVIDER_URL")
	viper.BindEnv("MAIL_API_KEY")
	viper.BindEnv("MAIL_FROM")
	viper.BindEnv("MAIL_CONCURRENCY")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}
