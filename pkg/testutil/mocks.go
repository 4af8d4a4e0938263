// Package testutil provides in-memory stand-ins shared across test files.
package testutil

import (
	"os"
	"sync"
)

// MockFileManager is an in-memory file system for the account store. It
// tracks every operation and allows injection of custom behavior and errors.
type MockFileManager struct {
	WriteFileFunc func(filename string, data []byte, perm os.FileMode) error
	ReadFileFunc  func(filename string) ([]byte, error)
	MkdirAllFunc  func(path string, perm os.FileMode) error
	RenameFunc    func(oldpath, newpath string) error

	// Track calls for verification in tests
	Files       map[string][]byte
	Perms       map[string]os.FileMode
	ReadFiles   []string
	CreatedDirs map[string]os.FileMode
	Renames     [][2]string

	mu sync.Mutex
}

func NewMockFileManager() *MockFileManager {
	return &MockFileManager{
		Files:       make(map[string][]byte),
		Perms:       make(map[string]os.FileMode),
		ReadFiles:   make([]string, 0),
		CreatedDirs: make(map[string]os.FileMode),
	}
}

func (m *MockFileManager) WriteFile(filename string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteFileFunc != nil {
		if err := m.WriteFileFunc(filename, data, perm); err != nil {
			return err
		}
	}
	m.Files[filename] = append([]byte(nil), data...)
	m.Perms[filename] = perm
	return nil
}

// ReadFile returns os.ErrNotExist for files that were never written.
func (m *MockFileManager) ReadFile(filename string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadFiles = append(m.ReadFiles, filename)
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(filename)
	}
	data, exists := m.Files[filename]
	if !exists {
		return nil, os.ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (m *MockFileManager) MkdirAll(path string, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatedDirs[path] = perm
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(path, perm)
	}
	return nil
}

func (m *MockFileManager) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Renames = append(m.Renames, [2]string{oldpath, newpath})
	if m.RenameFunc != nil {
		if err := m.RenameFunc(oldpath, newpath); err != nil {
			return err
		}
	}
	data, exists := m.Files[oldpath]
	if !exists {
		return os.ErrNotExist
	}
	m.Files[newpath] = data
	m.Perms[newpath] = m.Perms[oldpath]
	delete(m.Files, oldpath)
	delete(m.Perms, oldpath)
	return nil
}

// Reset clears all tracked operations and stored files.
func (m *MockFileManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Files = make(map[string][]byte)
	m.Perms = make(map[string]os.FileMode)
	m.ReadFiles = make([]string, 0)
	m.CreatedDirs = make(map[string]os.FileMode)
	m.Renames = nil
}
