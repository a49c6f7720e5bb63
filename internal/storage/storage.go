package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileTree is the read/write capability the engine needs over the library.
// Paths are root-relative and slash-separated.
type FileTree interface {
	ReadFile(rel string) ([]byte, error)
	WriteFile(rel string, data []byte) error
	Stat(rel string) (fs.FileInfo, error)
	MkdirAll(rel string) error
	// Walk visits every regular file under dir in lexical order
	Walk(dir string, fn func(rel string, info fs.FileInfo) error) error
}

// Storage handles all file system operations for the prompt library
type Storage struct {
	rootPath string
}

// NewStorage creates a new storage instance rooted at rootPath
func NewStorage(rootPath string) (*Storage, error) {
	if rootPath == "" {
		rootPath = "."
	}
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open library root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library root is not a directory: %s", abs)
	}
	return &Storage{rootPath: abs}, nil
}

// GetBaseDir returns the root path of the storage
func (s *Storage) GetBaseDir() string {
	return s.rootPath
}

// Abs resolves a root-relative path to an absolute path
func (s *Storage) Abs(rel string) string {
	return filepath.Join(s.rootPath, filepath.FromSlash(rel))
}

// Rel converts an absolute path to a root-relative, slash-separated path
func (s *Storage) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(s.rootPath, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// ReadFile reads a file relative to the root
func (s *Storage) ReadFile(rel string) ([]byte, error) {
	data, err := os.ReadFile(s.Abs(rel))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return data, nil
}

// WriteFile replaces a file relative to the root. The parent directory must
// already exist.
func (s *Storage) WriteFile(rel string, data []byte) error {
	if err := os.WriteFile(s.Abs(rel), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// Stat returns file info for a path relative to the root
func (s *Storage) Stat(rel string) (fs.FileInfo, error) {
	return os.Stat(s.Abs(rel))
}

// MkdirAll creates a directory relative to the root
func (s *Storage) MkdirAll(rel string) error {
	if err := os.MkdirAll(s.Abs(rel), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", rel, err)
	}
	return nil
}

// Walk visits regular files under dir. Hidden directories are skipped.
func (s *Storage) Walk(dir string, fn func(rel string, info fs.FileInfo) error) error {
	base := s.Abs(dir)
	return filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != base && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := s.Rel(path)
		if err != nil {
			return err
		}
		return fn(rel, info)
	})
}

// ContentHash returns the SHA256 hash of data
func ContentHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
