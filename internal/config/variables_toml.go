// Package config loads the two declaration files a solution package and a
// user's home directory may carry: variables.toml (the initial Variable
// Store seed) and ~/.autoforge.yaml (proxy/token/glob preferences).
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/emichael72/auto-forge/internal/forgeerr"
	"github.com/emichael72/auto-forge/internal/variables"
)

// VariableDecl is one [[variable]] entry of variables.toml.
type VariableDecl struct {
	Key             string `toml:"key"`
	Value           string `toml:"value"`
	IsPath          bool   `toml:"is_path"`
	PathMustExist   bool   `toml:"path_must_exist"`
	CreateIfMissing bool   `toml:"create_if_missing"`
	FolderType      string `toml:"folder_type"`
	Description     string `toml:"description"`
}

// VariablesFile is the root shape of variables.toml.
type VariablesFile struct {
	Variable []VariableDecl `toml:"variable"`
}

var folderTypes = map[string]variables.FolderType{
	"":          variables.FolderUnknown,
	"workspace": variables.FolderWorkspace,
	"source":    variables.FolderSource,
	"build":     variables.FolderBuild,
	"scripts":   variables.FolderScripts,
	"external":  variables.FolderExternal,
}

// LoadVariablesTOML parses a variables.toml file. A missing file is not an
// error: callers seed the store from CLI-derived built-ins only.
func LoadVariablesTOML(path string) (*VariablesFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &VariablesFile{}, nil
	}
	if err != nil {
		return nil, forgeerr.Wrap(forgeerr.ErrInternal, "read %q: %v", path, err)
	}

	var file VariablesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, forgeerr.Wrap(forgeerr.ErrSchemaViolation, "parse %q: %v", path, err)
	}
	return &file, nil
}

// SeedStore registers every declaration from a VariablesFile into store,
// skipping (rather than failing on) a key the caller already added, since
// CLI-derived built-ins take precedence over solution-declared defaults.
func SeedStore(store *variables.Store, file *VariablesFile) error {
	for _, decl := range file.Variable {
		if decl.Key == "" {
			return forgeerr.Wrap(forgeerr.ErrSchemaViolation, "variables.toml: entry with empty key")
		}
		if _, exists := store.Get(decl.Key); exists {
			continue
		}
		folder, ok := folderTypes[decl.FolderType]
		if !ok {
			return forgeerr.Wrap(forgeerr.ErrSchemaViolation, "variables.toml: %q has unknown folder_type %q", decl.Key, decl.FolderType)
		}
		if err := store.Add(decl.Key, decl.Value, decl.IsPath, decl.PathMustExist, decl.CreateIfMissing, folder, decl.Description); err != nil {
			return fmt.Errorf("variables.toml: %w", err)
		}
	}
	return nil
}
