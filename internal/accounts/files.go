package accounts

import (
	"os"
)

// FileManager is the file system surface the store needs.
type FileManager interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	Rename(oldpath, newpath string) error
}

type OSFileManager struct{}

func (OSFileManager) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (OSFileManager) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (OSFileManager) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (OSFileManager) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}
