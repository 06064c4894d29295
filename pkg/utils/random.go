package utils

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
)

// GenerateID создает короткий уникальный ID (16 hex-символов).
// Используется там, где полноценный UUID избыточен.
func GenerateID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic("failed to generate random ID: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// CryptoSeed возвращает криптографически случайное зерно для math/rand.
// Каждый генератор (токены, сессии) сеется СВОИМ вызовом, чтобы
// последовательности были независимы друг от друга.
func CryptoSeed() int64 {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic("failed to read crypto seed: " + err.Error())
	}
	return int64(binary.LittleEndian.Uint64(b))
}
