package engine

import (
	"time"

	"dogwalk-server/pkg/utils"
)

// Tuning - параметры, которые разрешено менять на лету при
// перечитывании конфига. Геометрия карт, в отличие от них,
// фиксируется на старте процесса.
type Tuning struct {
	// RetireAfter - порог бездействия, после которого пес уходит
	// на покой, а его рекорд уезжает в хранилище.
	RetireAfter time.Duration

	// LootInterval и LootProbability управляют генератором потеряшек.
	LootInterval    time.Duration
	LootProbability float64
}

// Config хранит параметры запуска игрового ядра.
type Config struct {
	// Seed - мастер-зерно. Сид каждой сессии выводится из него и id
	// карты, поэтому порядок создания сессий на генерацию не влияет.
	Seed int64

	// RandomizeSpawnPoints: псы появляются в случайной точке случайной
	// дороги вместо начала первой дороги карты.
	RandomizeSpawnPoints bool

	Tuning Tuning
}

// NewConfig создает конфиг по умолчанию (случайный сид).
func NewConfig() Config {
	return Config{
		Seed: utils.CryptoSeed(),
		Tuning: Tuning{
			RetireAfter:     60 * time.Second,
			LootInterval:    5 * time.Second,
			LootProbability: 0.25,
		},
	}
}
