package credstore

import (
	"context"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

const fileFormatVersion = 1

// fileDocument is the on-disk layout of a FileStore.
type fileDocument struct {
	Version int               `json:"version"`
	Salt    string            `json:"salt"`
	Values  map[string]string `json:"values"`
}

// FileStore persists sealed credentials in a single JSON file. Writes go to
// a temporary file that is renamed over the original, so a reader never
// sees a half-written document.
type FileStore struct {
	path string
	aead cipher.AEAD
	salt []byte

	mu     sync.Mutex
	values map[string]string
}

// OpenFileStore loads the store at path, creating a new salt when the file
// does not exist yet. The file itself is only created on the first Put.
//
// A file that cannot be read or decoded counts as holding no credentials:
// the problem is logged and the store starts empty with a fresh salt, so
// the next Put replaces the file.
func OpenFileStore(path string, passphrase []byte, log *zap.Logger) (*FileStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fs := &FileStore{path: path, values: make(map[string]string)}

	salt, values, err := readDocument(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("credential file unusable, starting empty", zap.String("path", path), zap.Error(err))
	}
	if err != nil {
		if salt, err = NewSalt(); err != nil {
			return nil, err
		}
		values = nil
	}
	fs.salt = salt
	for k, v := range values {
		fs.values[k] = v
	}

	if fs.aead, err = NewAEAD(passphrase, fs.salt); err != nil {
		return nil, err
	}
	return fs, nil
}

func readDocument(path string) ([]byte, map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("read credential file: %w", err)
	}
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parse credential file: %w", err)
	}
	if doc.Version != fileFormatVersion {
		return nil, nil, fmt.Errorf("unsupported credential file version %d", doc.Version)
	}
	salt, err := base64.StdEncoding.DecodeString(doc.Salt)
	if err != nil || len(salt) != SaltSize {
		return nil, nil, fmt.Errorf("parse credential file: %w", ErrCorrupt)
	}
	return salt, doc.Values, nil
}

// Put implements Store.
func (fs *FileStore) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sealed, err := seal(fs.aead, key, value)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	prev, had := fs.values[key]
	fs.values[key] = sealed
	if err := fs.save(); err != nil {
		if had {
			fs.values[key] = prev
		} else {
			delete(fs.values, key)
		}
		return err
	}
	return nil
}

// Get implements Store.
func (fs *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	fs.mu.Lock()
	sealed, ok := fs.values[key]
	fs.mu.Unlock()
	if !ok {
		return "", false, nil
	}
	plain, err := open(fs.aead, key, sealed)
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return plain, true, nil
}

// Delete implements Store.
func (fs *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	prev, had := fs.values[key]
	if !had {
		return nil
	}
	delete(fs.values, key)
	if err := fs.save(); err != nil {
		fs.values[key] = prev
		return err
	}
	return nil
}

// save writes the document atomically. Callers hold fs.mu.
func (fs *FileStore) save() error {
	doc := fileDocument{
		Version: fileFormatVersion,
		Salt:    base64.StdEncoding.EncodeToString(fs.salt),
		Values:  fs.values,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode credential file: %w", err)
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}
