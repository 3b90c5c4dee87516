package aiclient

import (
	"os"
	"strconv"
)

// Config holds the service connection settings.
type Config struct {
	APIKey         string
	BaseURL        string
	ImageModel     string
	VisionModel    string
	TimeoutSeconds int
}

// LoadConfig reads the client configuration from the environment,
// falling back to defaults for everything but the API key.
func LoadConfig() Config {
	return Config{
		APIKey:         os.Getenv("ATRIUM_AI_API_KEY"),
		BaseURL:        getEnv("ATRIUM_AI_BASE_URL", "https://api.generative.example.com"),
		ImageModel:     getEnv("ATRIUM_AI_IMAGE_MODEL", "plan-image-1"),
		VisionModel:    getEnv("ATRIUM_AI_VISION_MODEL", "plan-vision-1"),
		TimeoutSeconds: getEnvAsInt("ATRIUM_AI_TIMEOUT", 60),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
