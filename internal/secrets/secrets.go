// Package secrets loads provider credentials from a YAML file kept outside
// the environment and the repository.
package secrets

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// ZoomSecrets holds server-to-server OAuth credentials.
type ZoomSecrets struct {
	AccountID    string `yaml:"account_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// CalendarSecrets holds CalDAV basic-auth credentials.
type CalendarSecrets struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// AdvocacySecrets holds the login used to drive the advocacy platform.
type AdvocacySecrets struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// SMTPSecrets holds relay credentials. Empty values mean an unauthenticated
// relay.
type SMTPSecrets struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Secrets is the top-level credentials document.
type Secrets struct {
	Zoom     ZoomSecrets     `yaml:"zoom"`
	Calendar CalendarSecrets `yaml:"calendar"`
	Advocacy AdvocacySecrets `yaml:"advocacy"`
	SMTP     SMTPSecrets     `yaml:"smtp"`
}

// Load reads and parses the secrets file. The file must not be readable by
// group or others; a world-readable credentials file is refused outright.
func Load(path string) (Secrets, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Secrets{}, fmt.Errorf("secrets: stat %s: %w", path, err)
	}

	// Windows has no usable Unix permission bits.
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm&0o077 != 0 {
			return Secrets{}, fmt.Errorf("secrets: %s has permissions %04o; fix with chmod 600", path, perm)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Secrets{}, fmt.Errorf("secrets: read %s: %w", path, err)
	}

	var s Secrets
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Secrets{}, fmt.Errorf("secrets: parse %s: %w", path, err)
	}
	return s, nil
}

// Save writes the secrets file with owner-only permissions. Used by setup
// tooling; the service itself only reads.
func Save(path string, s Secrets) error {
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("secrets: marshal: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("secrets: write %s: %w", path, err)
	}
	return nil
}
