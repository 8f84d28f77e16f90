package utils

import (
	"os"
	"strconv"

	"github.com/campusbridge/taxforms-backend/internal/logger"
)

// debug tolerates a nil logger; env lookups happen before logging is wired
// in some code paths.
func debug(log *logger.Logger, msg string, keysAndValues ...interface{}) {
	if log != nil {
		log.Debug(msg, keysAndValues...)
	}
}

func GetEnv(key, defaultVal string, log *logger.Logger) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		debug(log, "Environment variable not set, using default", "env_var", key, "default", defaultVal)
		return defaultVal
	}
	return val
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		debug(log, "Environment variable not set, using default", "env_var", key, "default", defaultVal)
		return defaultVal
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		debug(log, "Environment variable is not an integer, using default",
			"env_var", key, "value", raw, "default", defaultVal, "error", err)
		return defaultVal
	}
	return i
}
