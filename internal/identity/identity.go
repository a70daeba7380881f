// Package identity determines the actor name the flowboard CLI records in
// status history. It is sent as the X-Flowboard-Actor header.
package identity

import (
	"fmt"
	"os"
	"os/user"
	"strings"
)

const (
	// EnvActor overrides the generated actor when set
	EnvActor = "FLOWBOARD_ACTOR"
	// FallbackUser is used when the user cannot be determined
	FallbackUser = "unknown"
	// FallbackHostname is used when the hostname cannot be determined
	FallbackHostname = "localhost"
)

// Actor returns the actor name: $FLOWBOARD_ACTOR when set, otherwise
// user@hostname, e.g. alice@macbook.
func Actor() string {
	return ActorWithOverrides(os.Getenv(EnvActor), getUser(), getHostname())
}

// ActorWithOverrides returns the actor name using the provided values,
// applying fallbacks for any empty values.
func ActorWithOverrides(override, usr, hostname string) string {
	if o := strings.TrimSpace(override); o != "" {
		return o
	}
	if usr == "" {
		usr = FallbackUser
	}
	if hostname == "" {
		hostname = FallbackHostname
	}

	return fmt.Sprintf("%s@%s", usr, hostname)
}

// getUser returns the current user's username.
// It first checks the USER environment variable, then falls back to user.Current().
func getUser() string {
	if usr := os.Getenv("USER"); usr != "" {
		return usr
	}

	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}

	return ""
}

// getHostname returns the short system hostname.
func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return ""
	}
	if i := strings.IndexByte(hostname, '.'); i > 0 {
		hostname = hostname[:i]
	}
	return hostname
}
