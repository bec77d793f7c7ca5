package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTP  HTTPConfig
	DB    DBConfig
	JWT   JWTConfig
	Auth  AuthConfig
	Redis RedisConfig
	Admin AdminConfig
}

type HTTPConfig struct {
	Addr string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type JWTConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type AuthConfig struct {
	ServiceURL string
	Timeout    time.Duration
}

// AdminConfig seeds the first admin account on auth service startup.
type AdminConfig struct {
	Email    string
	Password string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	tokenTTLMin, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_EXPIRE_MINUTES", "60"))
	authTimeoutSec, _ := strconv.Atoi(getEnv("AUTH_SERVICE_TIMEOUT_SECONDS", "5"))

	return Config{
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "ventra"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:   getEnv("JWT_SECRET", "change-me-in-production"),
			TokenTTL: time.Duration(tokenTTLMin) * time.Minute,
		},
		Auth: AuthConfig{
			ServiceURL: getEnv("AUTH_SERVICE_URL", "http://localhost:8001"),
			Timeout:    time.Duration(authTimeoutSec) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", "admin@ventra.local"),
			Password: getEnv("ADMIN_PASSWORD", "adminpassword"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
