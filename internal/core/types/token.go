package types

import "errors"

// Token - авторизационный токен игрока.
//
// Token является value-type и предназначен для дешёвого копирования,
// сравнения и использования в качестве ключа map.
//
// Формат: ровно 32 hex-символа в нижнем регистре (две 64-битные
// случайные величины, напечатанные как %016x%016x). Токен выдается
// при входе в игру и живет до ретайра пса; клиент передает его в
// заголовке Authorization: Bearer <token>.
type Token string

// TokenLength - длина токена в символах.
const TokenLength = 32

// ErrBadToken возвращается ParseToken для строки, которая не является
// 32-символьным lowercase-hex токеном. Обработчики транслируют эту
// ошибку в invalidToken (401), не уточняя клиенту, что именно не так.
var ErrBadToken = errors.New("token must be 32 lowercase hex characters")

// ParseToken проверяет формат строки и возвращает типизированный токен.
//
// Принимаются только символы [0-9a-f]: верхний регистр, пробелы и
// любые другие знаки делают токен невалидным целиком.
func ParseToken(s string) (Token, error) {
	if len(s) != TokenLength {
		return "", ErrBadToken
	}
	for i := 0; i < len(s); i++ {
		if !isLowerHex(s[i]) {
			return "", ErrBadToken
		}
	}
	return Token(s), nil
}

func isLowerHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

// String возвращает токен как есть (для заголовков и ключей).
func (t Token) String() string {
	return string(t)
}

// Masked возвращает укороченное представление для логов:
// первые и последние четыре символа. Полный токен - это credential,
// в логи он попадать не должен.
func (t Token) Masked() string {
	if len(t) != TokenLength {
		return "<malformed>"
	}
	return string(t[:4]) + ".." + string(t[TokenLength-4:])
}
