package instance

import "github.com/angelmondragon/shopfront-backend/pkg/env"

// ID names the running process in log lines. Falls back to "local".
func ID() string {
	if id := env.Get("DYNO", ""); id != "" {
		return id
	}
	return env.Get("HOSTNAME", "local")
}
