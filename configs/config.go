package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Config returns an environment variable, loading .env from the
// working directory once so local runs need no exported variables.
func Config(key string) string {
	loadOnce.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, reading from process environment")
		}
	})
	return os.Getenv(key)
}
