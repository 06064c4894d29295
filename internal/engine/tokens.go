package engine

import (
	"fmt"
	"math/rand"

	"dogwalk-server/internal/core/types"
	"dogwalk-server/pkg/utils"
)

// tokenSource выдает авторизационные токены: конкатенация двух
// независимых 64-битных случайных величин в hex-записи. Каждый
// генератор сеется собственным криптослучайным зерном, чтобы токен
// нельзя было восстановить, наблюдая одну последовательность.
type tokenSource struct {
	hi *rand.Rand
	lo *rand.Rand
}

func newTokenSource() *tokenSource {
	return &tokenSource{
		hi: rand.New(rand.NewSource(utils.CryptoSeed())),
		lo: rand.New(rand.NewSource(utils.CryptoSeed())),
	}
}

// Generate возвращает новый токен: ровно 32 hex-символа в нижнем
// регистре, ведущие нули сохраняются.
func (t *tokenSource) Generate() types.Token {
	return types.Token(fmt.Sprintf("%016x%016x", t.hi.Uint64(), t.lo.Uint64()))
}
