package utils

import (
  "os"
  "strconv"
  "github.com/bhavya-jpg/proofora-backend/internal/logger"
)

// GetEnv reads key from the environment, logging which value won.
func GetEnv(key, defaultVal string, log *logger.Logger) string {
  val, ok := os.LookupEnv(key)
  if !ok {
    log.Debug("Env var not set, using default", "env_var", key, "default", defaultVal)
    return defaultVal
  }
  return val
}

func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
  valStr, ok := os.LookupEnv(key)
  if !ok {
    log.Debug("Env var not set, using default", "env_var", key, "default", defaultVal)
    return defaultVal
  }
  i, err := strconv.Atoi(valStr)
  if err != nil {
    log.Warn("Env var is not an integer, using default", "env_var", key, "value", valStr, "default", defaultVal)
    return defaultVal
  }
  return i
}
