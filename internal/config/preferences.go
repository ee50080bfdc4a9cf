package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/emichael72/auto-forge/internal/forgeerr"
)

// Preferences is the shape of ~/.autoforge.yaml: user-level defaults the
// CLI flag layer falls back to when a flag was not passed explicitly.
type Preferences struct {
	ProxyServer        string   `yaml:"proxy_server"`
	GitToken           string   `yaml:"git_token"`
	InteractiveCommand []string `yaml:"interactive_commands"`
}

// LoadPreferences reads ~/.autoforge.yaml, returning an empty Preferences
// (not an error) when the file does not exist.
func LoadPreferences() (*Preferences, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return &Preferences{}, nil
	}
	return loadPreferencesFrom(filepath.Join(home, ".autoforge.yaml"))
}

func loadPreferencesFrom(path string) (*Preferences, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Preferences{}, nil
	}
	if err != nil {
		return nil, forgeerr.Wrap(forgeerr.ErrInternal, "read %q: %v", path, err)
	}

	var prefs Preferences
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return nil, forgeerr.Wrap(forgeerr.ErrSchemaViolation, "parse %q: %v", path, err)
	}
	return &prefs, nil
}

// ApplyDefaults fills proxyServer/gitToken with the preferences' values
// when the passed-in value is empty (i.e. the corresponding flag was not
// set). The interactive-command overrides are read from InteractiveCommand
// directly; they are not returned here.
func (p *Preferences) ApplyDefaults(proxyServer, gitToken string) (resolvedProxy, resolvedToken string) {
	resolvedProxy, resolvedToken = proxyServer, gitToken
	if resolvedProxy == "" {
		resolvedProxy = p.ProxyServer
	}
	if resolvedToken == "" {
		resolvedToken = p.GitToken
	}
	return resolvedProxy, resolvedToken
}
