package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// S3 Media Bucket Configuration
	AWS_ACCESS_KEY_ID     string
	AWS_SECRET_ACCESS_KEY string
	AWS_REGION            string
	S3_BUCKET             string
	// Email (SES)
	EMAIL_FROM string
	// Stripe Configuration
	STRIPE_SECRET            string
	STRIPE_SUCCESS_URL       string
	STRIPE_CANCEL_URL        string
	STRIPE_REDIRECT_URL      string
	STRIPE_SETTINGS_REDIRECT string
	// Abandoned checkout sessions older than this are swept by the cron job
	PAYMENT_SESSION_TTL time.Duration
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8000
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	sessionTTL := 24 * time.Hour
	if v := os.Getenv("PAYMENT_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			sessionTTL = d
		}
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// S3
		AWS_ACCESS_KEY_ID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWS_SECRET_ACCESS_KEY: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		AWS_REGION:            os.Getenv("AWS_REGION"),
		S3_BUCKET:             os.Getenv("S3_BUCKET"),
		// Email
		EMAIL_FROM: os.Getenv("EMAIL_FROM"),
		// Stripe
		STRIPE_SECRET:            os.Getenv("STRIPE_SECRET"),
		STRIPE_SUCCESS_URL:       os.Getenv("STRIPE_SUCCESS_URL"),
		STRIPE_CANCEL_URL:        os.Getenv("STRIPE_CANCEL_URL"),
		STRIPE_REDIRECT_URL:      os.Getenv("STRIPE_REDIRECT_URL"),
		STRIPE_SETTINGS_REDIRECT: os.Getenv("STRIPE_SETTINGS_REDIRECT"),
		PAYMENT_SESSION_TTL:      sessionTTL,
	}

	return envVariables, nil
}
