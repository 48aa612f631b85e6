package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Ошибки хеширования
var (
	ErrEmptyKey    = errors.New("api key cannot be empty")
	ErrKeyMismatch = errors.New("api key does not match hash")
	ErrInvalidHash = errors.New("invalid hash format")
	ErrKeyTooLong  = errors.New("api key exceeds maximum length of 72 bytes")
)

// DefaultCost - стоимость хеширования по умолчанию.
// Проверка ключа выполняется раз на запрос синхронизации, которая сама
// занимает секунды, так что высокая стоимость здесь ничего не ломает.
const DefaultCost = 12

// MaxKeyLength - максимальная длина входа для bcrypt (72 байта)
const MaxKeyLength = 72

// HashAPIKey хеширует API-ключ с использованием bcrypt.
// Соль генерируется автоматически. Используется утилитой выпуска ключей,
// сервис хранит только хеш.
func HashAPIKey(key string) (string, error) {
	return HashAPIKeyWithCost(key, DefaultCost)
}

// HashAPIKeyWithCost хеширует API-ключ с указанной стоимостью.
// cost ограничивается диапазоном bcrypt.MinCost..bcrypt.MaxCost.
func HashAPIKeyWithCost(key string, cost int) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	if len(key) > MaxKeyLength {
		return "", ErrKeyTooLong
	}

	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAPIKey проверяет соответствие ключа хешу.
// Сравнение constant-time, timing-атаки по ответу не работают.
func VerifyAPIKey(key, hash string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if hash == "" {
		return ErrInvalidHash
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrKeyMismatch
		}
		return ErrInvalidHash
	}
	return nil
}

// CheckAPIKeyMatch проверяет соответствие ключа хешу и возвращает bool.
// Удобная обёртка для middleware.
func CheckAPIKeyMatch(key, hash string) bool {
	return VerifyAPIKey(key, hash) == nil
}

// GetHashCost извлекает cost из существующего хеша.
// Полезно для определения необходимости перехеширования при повышении cost.
func GetHashCost(hash string) (int, error) {
	if hash == "" {
		return 0, ErrInvalidHash
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return 0, ErrInvalidHash
	}
	return cost, nil
}
