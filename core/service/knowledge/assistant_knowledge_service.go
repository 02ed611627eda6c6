// Package knowledge manages per-user knowledge base files on disk.
package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"assistant_server/core/agent/rag"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/logger"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeEmail turns an email address into a filesystem-safe directory name.
func SanitizeEmail(email string) string {
	sanitized := strings.ReplaceAll(email, "@", "_at_")
	return strings.ReplaceAll(sanitized, ".", "_dot_")
}

// DesanitizeEmail reverses SanitizeEmail.
func DesanitizeEmail(dir string) string {
	email := strings.ReplaceAll(dir, "_dot_", ".")
	return strings.ReplaceAll(email, "_at_", "@")
}

// SecureFilename strips path components and unsafe characters from an
// uploaded filename.
func SecureFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.TrimLeft(name, ".")
}

// FileInfo describes one stored knowledge base file.
type FileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Service stores and reads each user's knowledge base under a base directory.
type Service struct {
	baseDir string
	log     *logger.Logger
}

// NewService creates a knowledge base service rooted at baseDir.
func NewService(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		log:     logger.Default().WithField("component", "knowledge_service"),
	}
}

// userDir returns (and creates) the user's knowledge base directory.
func (s *Service) userDir(userEmail string) (string, error) {
	dir := filepath.Join(s.baseDir, SanitizeEmail(userEmail))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create knowledge base directory: %w", err)
	}
	return dir, nil
}

// SaveFile stores an uploaded file. Duplicates are rejected.
func (s *Service) SaveFile(userEmail, filename string, content []byte) error {
	safe := SecureFilename(filename)
	if safe == "" {
		return apperr.BadRequest("invalid filename")
	}

	dir, err := s.userDir(userEmail)
	if err != nil {
		return apperr.InternalWithError(err)
	}

	path := filepath.Join(dir, safe)
	if _, err := os.Stat(path); err == nil {
		return apperr.AlreadyExists("file "+safe)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return apperr.InternalWithError(err)
	}
	s.log.WithField("user_email", userEmail).Info("knowledge base file stored: %s", safe)
	return nil
}

// ListFiles returns metadata for the user's stored files.
func (s *Service) ListFiles(userEmail string) ([]FileInfo, error) {
	dir, err := s.userDir(userEmail)
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}
	return files, nil
}

// ReadFile returns the content of one stored file.
func (s *Service) ReadFile(userEmail, filename string) ([]byte, error) {
	safe := SecureFilename(filename)
	if safe == "" {
		return nil, apperr.BadRequest("invalid filename")
	}

	dir, err := s.userDir(userEmail)
	if err != nil {
		return nil, apperr.InternalWithError(err)
	}

	content, err := os.ReadFile(filepath.Join(dir, safe))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound("file "+safe)
		}
		return nil, apperr.InternalWithError(err)
	}
	return content, nil
}

// DeleteFile removes one stored file.
func (s *Service) DeleteFile(userEmail, filename string) error {
	safe := SecureFilename(filename)
	if safe == "" {
		return apperr.BadRequest("invalid filename")
	}

	dir, err := s.userDir(userEmail)
	if err != nil {
		return apperr.InternalWithError(err)
	}

	if err := os.Remove(filepath.Join(dir, safe)); err != nil {
		if os.IsNotExist(err) {
			return apperr.NotFound("file "+safe)
		}
		return apperr.InternalWithError(err)
	}
	return nil
}

// ListDocuments extracts retrievable text from every stored file.
// Files that cannot be read as text are skipped.
func (s *Service) ListDocuments(userEmail string) ([]rag.Document, error) {
	files, err := s.ListFiles(userEmail)
	if err != nil {
		return nil, err
	}

	var docs []rag.Document
	for _, f := range files {
		content, err := s.ReadFile(userEmail, f.Name)
		if err != nil {
			continue
		}
		text, err := rag.ExtractFileText(f.Name, content)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, rag.Document{Text: text, Source: f.Name})
	}
	return docs, nil
}
