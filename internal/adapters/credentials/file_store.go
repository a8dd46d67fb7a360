package credentials

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"

	"github.com/zatekoja/patientportal/internal/domain/providers"
	apperrors "github.com/zatekoja/patientportal/pkg/errors"
)

// FileStore keeps credentials in a JSON file readable only by the owner.
// Writes go to a temporary file that is renamed over the original, so a
// crash never leaves a partially written token.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by path; the file is created on first write
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

var _ providers.CredentialStore = (*FileStore)(nil)

var errCorruptFile = errors.New("credential file is corrupt")

// Get retrieves a value
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

// Set stores a value
func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

// Remove deletes a value. A file that no longer decodes is replaced with an
// empty one, so a removal always takes effect.
func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if errors.Is(err, errCorruptFile) {
		return s.write(make(map[string]string))
	}
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

func (s *FileStore) read() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("read credential file", err)
	}

	values := make(map[string]string)
	if len(raw) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, apperrors.NewInternalError("decode credential file", fmt.Errorf("%w: %v", errCorruptFile, err))
	}
	return values, nil
}

func (s *FileStore) write(values map[string]string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return apperrors.NewInternalError("encode credential file", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return apperrors.NewInternalError("create credential dir", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return apperrors.NewInternalError("create temp credential file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("chmod credential file", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("write credential file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("sync credential file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewInternalError("close credential file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return apperrors.NewInternalError("replace credential file", err)
	}
	return nil
}
