// Package attribution picks the session user ID for local chat.
package attribution

import (
	"os"
	"os/exec"
	"strings"
	"sync"
)

var (
	cachedUser string
	once       sync.Once
)

// DetectUser returns the user ID for a local session. It checks, in order,
// ROLODEX_USER, git config user.name, $USER, and falls back to "local".
// The result is normalized to lowercase with spaces replaced by dashes and
// cached after the first call.
func DetectUser() string {
	once.Do(func() {
		cachedUser = detectUserUncached()
	})
	return cachedUser
}

func detectUserUncached() string {
	for _, candidate := range []func() string{
		func() string { return os.Getenv("ROLODEX_USER") },
		gitUserName,
		func() string { return os.Getenv("USER") },
	} {
		if id := normalize(candidate()); id != "" {
			return id
		}
	}
	return "local"
}

func normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// gitUserName returns `git config --get user.name`, or "" on any error.
func gitUserName() string {
	out, err := exec.Command("git", "config", "--get", "user.name").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
