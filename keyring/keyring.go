// Package keyring stores the provider account credentials.
// It uses the system keyring when available, falling back to an
// encrypted local file when not.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"

	"github.com/dcampos/vpnkeeper/common"
)

const (
	// serviceName is the identifier used in the system keyring.
	serviceName = "vpnkeeper"
	// usernameKey is the keyring entry recording which account is
	// logged in; the password is stored under the account name itself.
	usernameKey = "provider-username"
	// kdfSalt and kdfIterations parameterize local-store key derivation.
	kdfSalt       = "vpnkeeper-credential-store"
	kdfIterations = 4096
)

// Common errors returned by credential operations.
var (
	ErrNotFound = common.ErrCredentialsNotFound
	ErrStorage  = common.ErrCredentialStorage
)

// Storage backend state.
var (
	useLocalStorage bool
	localStoreMu    sync.RWMutex
	localStore      map[string]string
	localStoreFile  string
	encryptionKey   []byte
	initOnce        sync.Once
)

func initStorage() {
	// Probe the system keyring; fall back to the encrypted local file
	// when it is unavailable (headless hosts, no D-Bus session).
	testKey := "vpnkeeper-test-init"
	if err := keyring.Set(serviceName, testKey, "test"); err == nil {
		keyring.Delete(serviceName, testKey)
		useLocalStorage = false
		return
	}
	useLocalStorage = true
	initLocalStorage()
}

func initLocalStorage() {
	configDir, err := common.GetConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config", common.ConfigDirName)
		os.MkdirAll(configDir, 0700)
	}
	localStoreFile = filepath.Join(configDir, common.CredentialsFileName)

	// Derive the encryption key from machine identity, so the file is
	// only readable on the host that wrote it.
	hostname, _ := os.Hostname()
	keyData := fmt.Sprintf("%s-%s-%s-%d", serviceName, hostname, machineID(), os.Getuid())
	encryptionKey = pbkdf2.Key([]byte(keyData), []byte(kdfSalt), kdfIterations, 32, sha256.New)

	localStore = make(map[string]string)
	loadLocalStore()
}

func machineID() string {
	data, err := os.ReadFile("/etc/machine-id")
	if err == nil {
		return strings.TrimSpace(string(data))
	}
	return "default-machine-id"
}

func loadLocalStore() {
	data, err := os.ReadFile(localStoreFile)
	if err != nil {
		return
	}
	decrypted, err := decrypt(data)
	if err != nil {
		return
	}
	json.Unmarshal(decrypted, &localStore)
}

func saveLocalStore() error {
	localStoreMu.RLock()
	data, err := json.Marshal(localStore)
	localStoreMu.RUnlock()
	if err != nil {
		return err
	}

	encrypted, err := encrypt(data)
	if err != nil {
		return err
	}
	return os.WriteFile(localStoreFile, encrypted, 0600)
}

func encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func decrypt(data []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func set(key, value string) error {
	if useLocalStorage {
		localStoreMu.Lock()
		localStore[key] = value
		localStoreMu.Unlock()
		return saveLocalStore()
	}
	if err := keyring.Set(serviceName, key, value); err != nil {
		// Keyring went away mid-session; fall back.
		useLocalStorage = true
		initLocalStorage()
		localStoreMu.Lock()
		localStore[key] = value
		localStoreMu.Unlock()
		return saveLocalStore()
	}
	return nil
}

func get(key string) (string, error) {
	if useLocalStorage {
		localStoreMu.RLock()
		value, exists := localStore[key]
		localStoreMu.RUnlock()
		if !exists {
			return "", ErrNotFound
		}
		return value, nil
	}
	value, err := keyring.Get(serviceName, key)
	if err != nil {
		return "", ErrNotFound
	}
	return value, nil
}

func del(key string) {
	if useLocalStorage {
		localStoreMu.Lock()
		delete(localStore, key)
		localStoreMu.Unlock()
		saveLocalStore()
		return
	}
	keyring.Delete(serviceName, key)
}

// StoreCredentials saves the provider account credentials.
func StoreCredentials(username, password string) error {
	initOnce.Do(initStorage)

	if username == "" {
		return fmt.Errorf("%w: username cannot be empty", ErrStorage)
	}
	if password == "" {
		return fmt.Errorf("%w: password cannot be empty", ErrStorage)
	}

	if err := set(usernameKey, username); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := set(username, password); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// LoadCredentials retrieves the stored provider account credentials.
func LoadCredentials() (username, password string, err error) {
	initOnce.Do(initStorage)

	username, err = get(usernameKey)
	if err != nil {
		return "", "", err
	}
	password, err = get(username)
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

// DeleteCredentials removes the stored provider account credentials.
func DeleteCredentials() error {
	initOnce.Do(initStorage)

	username, err := get(usernameKey)
	if err == nil {
		del(username)
	}
	del(usernameKey)
	return nil
}

// HasCredentials reports whether an account is stored.
func HasCredentials() bool {
	_, _, err := LoadCredentials()
	return err == nil
}
