package identity

import (
	"regexp"
	"testing"
)

func TestActorWithOverrides(t *testing.T) {
	tests := []struct {
		name     string
		override string
		user     string
		hostname string
		want     string
	}{
		{
			name:     "basic format",
			user:     "alice",
			hostname: "macbook",
			want:     "alice@macbook",
		},
		{
			name:     "override wins",
			override: "release-bot",
			user:     "alice",
			hostname: "macbook",
			want:     "release-bot",
		},
		{
			name:     "blank override ignored",
			override: "   ",
			user:     "dev",
			hostname: "server",
			want:     "dev@server",
		},
		{
			name: "fallbacks",
			want: FallbackUser + "@" + FallbackHostname,
		},
		{
			name: "missing hostname",
			user: "root",
			want: "root@" + FallbackHostname,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ActorWithOverrides(tt.override, tt.user, tt.hostname)
			if got != tt.want {
				t.Errorf("ActorWithOverrides(%q, %q, %q) = %q, want %q", tt.override, tt.user, tt.hostname, got, tt.want)
			}
		})
	}
}

func TestActor_FromEnvironment(t *testing.T) {
	t.Setenv(EnvActor, "ci-runner")

	if got := Actor(); got != "ci-runner" {
		t.Errorf("expected env override, got %q", got)
	}
}

func TestActor_Generated(t *testing.T) {
	t.Setenv(EnvActor, "")
	t.Setenv("USER", "tester")

	pattern := regexp.MustCompile(`^tester@[^.@]+$`)
	if got := Actor(); !pattern.MatchString(got) {
		t.Errorf("expected tester@host, got %q", got)
	}
}
