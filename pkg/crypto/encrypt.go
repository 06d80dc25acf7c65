package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// encrypt.go - шифрование ключей источников рыночных данных
//
// Назначение:
// API-ключи провайдеров цен и глубины стакана хранятся в настройках
// зашифрованными. AES-256-GCM даёт конфиденциальность и проверку
// целостности: подменённый шифротекст не расшифруется.
//
// Формат шифротекста: base64(nonce || ciphertext || tag)

const (
	// KeyLength - длина ключа AES-256 в байтах
	KeyLength = 32
)

var (
	// ErrInvalidKeyLength - ключ не 32 байта
	ErrInvalidKeyLength = errors.New("encryption key must be exactly 32 bytes")

	// ErrInvalidCiphertext - шифротекст не является валидным base64
	ErrInvalidCiphertext = errors.New("ciphertext is not valid base64")

	// ErrCiphertextTooShort - шифротекст короче nonce
	ErrCiphertextTooShort = errors.New("ciphertext is too short")

	// ErrDecryptionFailed - неверный ключ или изменённые данные
	ErrDecryptionFailed = errors.New("decryption failed: wrong key or corrupted data")
)

// ValidateKey проверяет длину ключа
func ValidateKey(key []byte) error {
	if len(key) != KeyLength {
		return ErrInvalidKeyLength
	}
	return nil
}

// GenerateKey генерирует криптографически стойкий 32-байтовый ключ
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeyLength)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// GenerateKeyString генерирует ключ в виде строки для переменной окружения
func GenerateKeyString() (string, error) {
	key, err := GenerateKey()
	if err != nil {
		return "", err
	}
	return string(key), nil
}

// Encrypt шифрует строку алгоритмом AES-256-GCM.
// Каждый вызов использует свежий случайный nonce, поэтому одинаковый
// plaintext даёт разные шифротексты.
func Encrypt(plaintext string, key []byte) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// nonce кладём в начало, Seal дописывает ciphertext+tag следом
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt расшифровывает строку зашифрованную Encrypt
func Decrypt(ciphertext string, key []byte) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(data) < gcm.NonceSize() {
		return "", ErrCiphertextTooShort
	}

	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// EncryptWithKeyString - обёртка для ключа из переменной окружения
func EncryptWithKeyString(plaintext, keyString string) (string, error) {
	return Encrypt(plaintext, []byte(keyString))
}

// DecryptWithKeyString - обёртка для ключа из переменной окружения
func DecryptWithKeyString(ciphertext, keyString string) (string, error) {
	return Decrypt(ciphertext, []byte(keyString))
}
