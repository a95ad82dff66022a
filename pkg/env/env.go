package env

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/jaywantadh/PrioStream/pkg/logging"
)

func LoadEnv() {
	err := godotenv.Load()

	if err != nil {
		logging.Log.Debug("⚠️  No .env file found, using system envs")
	}
}

func GetEnv(key string, fallback string) string {
	if value, exist := os.LookupEnv(key); exist {
		return value
	}
	return fallback
}
