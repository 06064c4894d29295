package systems

import (
	"math"
	"time"
)

// LootGenerator решает, сколько потеряшек добавить на карту в конце
// тика. Генератор накапливает время с последнего спавна: чем дольше
// на карте ничего не появлялось, тем выше вероятность выброса.
//
// Количество вычисляется как round(shortage * q), где shortage -
// нехватка потеряшек до числа псов на карте, а
//
//	q = clamp((1 - (1-P)^(accum/Interval)) * random01(), 0, 1)
//
// Из формулы следует гарантия: после спавна потеряшек на карте не
// больше, чем псов.
type LootGenerator struct {
	// Interval и Probability обновляются при перечитывании конфига.
	// Доступ к генератору сериализован циклом сессии, поэтому
	// синхронизация не нужна.
	Interval    time.Duration
	Probability float64

	// Random01 возвращает случайное число в [0, 1]. Если nil,
	// используется 1.0: генератор детерминированно выдает максимум,
	// что удобно в тестах и допустимо в проде.
	Random01 func() float64

	timeWithoutLoot time.Duration
}

// NewLootGenerator создает генератор с заданным базовым интервалом и
// вероятностью появления потеряшки за интервал.
func NewLootGenerator(interval time.Duration, probability float64) *LootGenerator {
	return &LootGenerator{
		Interval:    interval,
		Probability: probability,
	}
}

// Count возвращает количество потеряшек, которое нужно добавить после
// тика длительностью dt при текущем числе потеряшек и псов на карте.
// Счетчик накопленного времени сбрасывается только когда генератор
// что-то выдал.
func (g *LootGenerator) Count(dt time.Duration, lootCount, looterCount int) int {
	g.timeWithoutLoot += dt

	if g.Interval <= 0 {
		return 0
	}
	shortage := looterCount - lootCount
	if shortage <= 0 {
		return 0
	}

	rnd := 1.0
	if g.Random01 != nil {
		rnd = g.Random01()
	}
	ratio := g.timeWithoutLoot.Seconds() / g.Interval.Seconds()
	q := clamp01((1.0 - math.Pow(1.0-g.Probability, ratio)) * rnd)

	generated := int(math.Round(float64(shortage) * q))
	if generated > 0 {
		g.timeWithoutLoot = 0
	}
	return generated
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
