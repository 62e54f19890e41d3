package restyutil

import (
	devenv "diningbot-backend/dev/env"
	"log/slog"
	"os"
	"path/filepath"
)

// FilesystemOutput writes every http message dump to its own file in a
// directory, the directory is cleared on creation.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput accepts paths prefixed with "<dev_state>".
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message dump", "id", id, "err", err)
	}
}
