package settings

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"filippo.io/age"
	"github.com/BurntSushi/toml"

	"subtrack/internal/subtrack"
)

// storeFile is the on-disk shape of the preference store: key names in the
// clear, values as base64 age ciphertext.
type storeFile struct {
	Values map[string]string `toml:"values"`
}

// EncryptedStore is a durable preference store whose values are encrypted at
// rest with age's scrypt-based passphrase encryption. The whole file is
// rewritten on each set; reads decrypt once and serve from memory.
type EncryptedStore struct {
	typed

	path       string
	passphrase string

	mu     sync.Mutex
	cipher map[string]string // key -> base64 ciphertext
	plain  map[string]string // decrypted cache
}

var _ subtrack.Settings = (*EncryptedStore)(nil)

// NewEncryptedStore opens (or creates) the encrypted store at path.
// The passphrase both decrypts existing values and encrypts new ones; a wrong
// passphrase surfaces as an error on the first read of an existing value.
func NewEncryptedStore(path, passphrase string) (*EncryptedStore, error) {
	s := &EncryptedStore{
		path:       path,
		passphrase: passphrase,
		cipher:     make(map[string]string),
		plain:      make(map[string]string),
	}
	s.typed.kv = s

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *EncryptedStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // fresh store
		}
		return fmt.Errorf("reading settings file: %w", err)
	}

	var f storeFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decoding settings file: %w", err)
	}
	if f.Values != nil {
		s.cipher = f.Values
	}
	return nil
}

func (s *EncryptedStore) get(name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.plain[name]; ok {
		return v, true, nil
	}
	enc, ok := s.cipher[name]
	if !ok {
		return "", false, nil
	}

	v, err := s.decrypt(enc)
	if err != nil {
		return "", false, fmt.Errorf("decrypting setting %s: %w", name, err)
	}
	s.plain[name] = v
	return v, true, nil
}

func (s *EncryptedStore) set(name, value string) error {
	enc, err := s.encrypt(value)
	if err != nil {
		return fmt.Errorf("encrypting setting %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cipher[name] = enc
	s.plain[name] = value
	return s.persist()
}

// persist writes the whole store atomically: temp file, then rename.
// Caller holds s.mu.
func (s *EncryptedStore) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(storeFile{Values: s.cipher}); err != nil {
		return fmt.Errorf("encoding settings file: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing settings file: %w", err)
	}
	return nil
}

func (s *EncryptedStore) encrypt(value string) (string, error) {
	recipient, err := age.NewScryptRecipient(s.passphrase)
	if err != nil {
		return "", fmt.Errorf("creating scrypt recipient: %w", err)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return "", fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, value); err != nil {
		return "", fmt.Errorf("writing ciphertext: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing ciphertext: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (s *EncryptedStore) decrypt(enc string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}

	identity, err := age.NewScryptIdentity(s.passphrase)
	if err != nil {
		return "", fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(raw), identity)
	if err != nil {
		return "", fmt.Errorf("opening ciphertext: %w", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading plaintext: %w", err)
	}
	return string(out), nil
}

func (s *EncryptedStore) Close() error { return nil }
