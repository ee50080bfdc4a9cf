// Package variables implements the process-wide Variable Store: a
// case-insensitive name to value map carrying enough metadata (path-ness,
// existence requirements, folder classification) to both validate itself
// at registration time and participate in $NAME-style string expansion.
package variables

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/emichael72/auto-forge/internal/forgeerr"
)

// FolderType classifies a path variable the way a solution descriptor's
// "folder_type" field does, so downstream workspace finalization can tell
// a build output directory from a source checkout.
type FolderType string

const (
	FolderUnknown   FolderType = ""
	FolderWorkspace FolderType = "workspace"
	FolderSource    FolderType = "source"
	FolderBuild     FolderType = "build"
	FolderScripts   FolderType = "scripts"
	FolderExternal  FolderType = "external"
)

// Kind is the inferred value type: callers do not set it; infer derives
// it from the value shape whenever Add or Set registers a new variable.
type Kind string

const (
	KindUnknown Kind = "unknown"
	KindPath    Kind = "path"
	KindFile    Kind = "file"
	KindURL     Kind = "url"
	KindBool    Kind = "bool"
	KindInt     Kind = "int"
	KindFloat   Kind = "float"
	KindVersion Kind = "version"
	KindString  Kind = "string"
)

// Field is the metadata attached to a registered variable.
type Field struct {
	Key             string
	Value           string
	Description     string
	IsPath          bool
	PathMustExist   bool
	CreateIfMissing bool
	FolderType      FolderType
	Kind            Kind
}

// Store is the single-writer, many-reader variable table. The zero value
// is not usable; construct with New.
type Store struct {
	mu   sync.RWMutex
	vars map[string]*Field // keyed by lower-cased name
}

// New returns an empty Store.
func New() *Store {
	return &Store{vars: make(map[string]*Field)}
}

func foldKey(key string) string { return strings.ToLower(strings.TrimSpace(key)) }

// Add registers a new variable. It returns a wrapped forgeerr.ErrAlreadyExists
// if key (case-folded) is already registered, or forgeerr.ErrNotFound if
// isPath && pathMustExist && the value does not exist on disk and
// createIfMissing is false. When createIfMissing is true and the path is
// absent, the directory is created.
func (s *Store) Add(key, value string, isPath, pathMustExist, createIfMissing bool, folder FolderType, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fk := foldKey(key)
	if fk == "" {
		return forgeerr.Wrap(forgeerr.ErrInvalidArgument, "empty variable name")
	}
	if _, exists := s.vars[fk]; exists {
		return forgeerr.Wrap(forgeerr.ErrAlreadyExists, "variable %q already defined", key)
	}

	if isPath {
		expanded := expandHome(value)
		if _, err := os.Stat(expanded); err != nil {
			if !os.IsNotExist(err) {
				return forgeerr.Wrap(forgeerr.ErrInternal, "stat %q: %v", expanded, err)
			}
			if createIfMissing {
				if mkErr := os.MkdirAll(expanded, 0o755); mkErr != nil {
					return forgeerr.Wrap(forgeerr.ErrInternal, "create %q: %v", expanded, mkErr)
				}
			} else if pathMustExist {
				return forgeerr.Wrap(forgeerr.ErrNotFound, "path %q for variable %q does not exist", value, key)
			}
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return forgeerr.Wrap(forgeerr.ErrInternal, "resolve %q: %v", expanded, err)
		}
		value = filepath.Clean(abs)
	}

	s.vars[fk] = &Field{
		Key:             key,
		Value:           value,
		Description:     description,
		IsPath:          isPath,
		PathMustExist:   pathMustExist,
		CreateIfMissing: createIfMissing,
		FolderType:      folder,
		Kind:            infer(value, isPath),
	}
	return nil
}

// Set overwrites the value of an already-registered variable, or adds a
// plain string variable when key is not yet registered.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fk := foldKey(key)
	if f, ok := s.vars[fk]; ok {
		f.Value = value
		return
	}
	s.vars[fk] = &Field{Key: key, Value: value, Kind: infer(value, false)}
}

// Get returns the field registered under key, case-insensitively.
func (s *Store) Get(key string) (Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.vars[foldKey(key)]
	if !ok {
		return Field{}, false
	}
	return *f, true
}

// Export returns a flat name->value mapping, original-case preserved, fit
// for overlaying onto a child process environment.
func (s *Store) Export() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.vars))
	for _, f := range s.vars {
		out[f.Key] = f.Value
	}
	return out
}

// EnvironFor builds the os/exec-style "KEY=VALUE" slice for a child
// process: current process environment overlaid with the Store export,
// overlaid with extra (the caller-supplied, highest-priority layer).
func (s *Store) EnvironFor(extra map[string]string) []string {
	merged := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			merged[kv[:i]] = kv[i+1:]
		}
	}
	for k, v := range s.Export() {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, merged[k]))
	}
	return out
}

func infer(value string, isPath bool) Kind {
	if isPath {
		return KindPath
	}
	switch strings.ToLower(value) {
	case "true", "false":
		return KindBool
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return KindURL
	}
	return KindString
}

func expandHome(p string) string {
	if p == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
		return p
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return home + p[1:]
		}
	}
	return p
}
