package devenv

import (
	"diningbot-backend/lib/configutil"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	moduleName     = "diningbot-backend"
	devStatePrefix = "<dev_state>"
)

var modName = regexp.MustCompile(`(?m)^module +(\S+)\s*$`)

func isWorkspaceRoot(dir string) bool {
	mod, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return false
	}
	matches := modName.FindSubmatch(mod)
	return len(matches) >= 2 && string(matches[1]) == moduleName
}

// GetWorkspaceRoot walks up from the working directory until it finds
// the go.mod of this module.
func GetWorkspaceRoot() (string, error) {
	current, err := filepath.Abs(".")
	if err != nil {
		return "", err
	}
	for {
		if isWorkspaceRoot(current) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", os.ErrNotExist
		}
		current = parent
	}
}

func GetStateFilePath(path string) (string, error) {
	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "dev", ".state", path), nil
}

// GetStateConfig reads a json5 config out of the dev state directory,
// os.ErrNotExist is returned if it (or the workspace root) cannot be found.
func GetStateConfig[T any](path string) (T, error) {
	configPath, err := GetStateFilePath(path)
	if err != nil {
		var out T
		return out, err
	}
	return configutil.ReadConfig[T](configPath)
}

// ResolvePath expands a leading "<dev_state>" path segment into the dev
// state directory of the workspace, other paths are returned as is.
func ResolvePath(path string) (string, error) {
	if !strings.HasPrefix(path, devStatePrefix) {
		return path, nil
	}

	root, err := GetWorkspaceRoot()
	if err != nil {
		return "", err
	}
	stateDir := filepath.Join(root, "dev", ".state")
	err = os.MkdirAll(stateDir, 0777)
	if err != nil && !errors.Is(err, os.ErrExist) {
		return "", err
	}

	subpath := strings.TrimLeft(strings.TrimPrefix(path, devStatePrefix), `/\`)
	return filepath.Join(stateDir, subpath), nil
}
