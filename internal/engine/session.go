package engine

import (
	"hash/fnv"
	"math/rand"
	"time"

	"dogwalk-server/internal/domain"
	"dogwalk-server/internal/systems"
)

// Session - живое состояние одной карты: псы, потеряшки и игровые
// часы. На карту существует ровно одна сессия за время жизни процесса;
// создается она лениво при первом входе.
//
// Сессия ничего не знает ни об учетных записях, ни о транспорте.
// Все обращения к ней сериализует ядро (Game), поэтому внутренней
// синхронизации здесь нет.
type Session struct {
	Map *domain.Map

	// Dogs хранится в порядке входа (возрастание id). Порядок важен:
	// при одновременном сближении с потеряшкой побеждает пес с
	// меньшим id, см. resolveGathering.
	Dogs []*domain.Dog
	Loot []domain.LootItem

	time        int64 // игровые часы, мс
	nextLootID  uint64
	rng         *rand.Rand
	lootGen     *systems.LootGenerator
	randomSpawn bool
}

// NewSession создает пустую сессию карты с собственным генератором
// случайностей.
func NewSession(m *domain.Map, seed int64, tuning Tuning, randomSpawn bool) *Session {
	rng := rand.New(rand.NewSource(seed))
	gen := systems.NewLootGenerator(tuning.LootInterval, tuning.LootProbability)
	gen.Random01 = rng.Float64

	return &Session{
		Map:         m,
		rng:         rng,
		lootGen:     gen,
		randomSpawn: randomSpawn,
	}
}

// sessionSeed выводит сид сессии из мастер-сида и id карты, чтобы
// порядок создания сессий не влиял на генерацию.
func sessionSeed(master int64, mapID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(mapID))
	return master ^ int64(h.Sum64())
}

// GameTime возвращает игровые часы сессии в миллисекундах.
func (s *Session) GameTime() int64 {
	return s.time
}

// AddDog ставит нового пса на карту. Точка появления и время входа
// фиксируются по текущим игровым часам.
func (s *Session) AddDog(id uint64, name string) *domain.Dog {
	dog := &domain.Dog{
		ID:           id,
		Name:         name,
		Pos:          s.spawnPoint(),
		Dir:          domain.DirectionNorth,
		Bag:          domain.NewBag(s.Map.BagCapacity),
		JoinedAt:     s.time,
		LastActivity: s.time,
	}
	s.Dogs = append(s.Dogs, dog)
	return dog
}

// FindDog возвращает пса по id либо nil.
func (s *Session) FindDog(id uint64) *domain.Dog {
	for _, dog := range s.Dogs {
		if dog.ID == id {
			return dog
		}
	}
	return nil
}

// SetVelocity применяет команду руления: задает скорость по одной из
// осей либо останавливает пса (пустая команда). Направление взгляда
// при остановке сохраняется.
func (s *Session) SetVelocity(dog *domain.Dog, move string) {
	dog.Steered = true

	if move == "" {
		dog.Speed = domain.Vec2{}
		return
	}
	dir, ok := domain.ParseDirection(move)
	if !ok {
		return
	}

	dog.Dir = dir
	v := s.Map.DogSpeed
	switch dir {
	case domain.DirectionNorth:
		dog.Speed = domain.Vec2{Y: -v}
	case domain.DirectionSouth:
		dog.Speed = domain.Vec2{Y: v}
	case domain.DirectionWest:
		dog.Speed = domain.Vec2{X: -v}
	case domain.DirectionEast:
		dog.Speed = domain.Vec2{X: v}
	}
}

// ApplyTuning обновляет горячие параметры генератора потеряшек.
// Накопленное время без спавна при этом сохраняется.
func (s *Session) ApplyTuning(t Tuning) {
	s.lootGen.Interval = t.LootInterval
	s.lootGen.Probability = t.LootProbability
}

// Tick продвигает сессию на dtMillis игрового времени и возвращает
// псов, ушедших на покой по бездействию. Порядок фаз фиксирован:
// движение, сбор, активность, ретайр, спавн потеряшек.
func (s *Session) Tick(dtMillis int64, retireAfter time.Duration) []*domain.Dog {
	if dtMillis <= 0 {
		return nil
	}
	s.time += dtMillis
	dt := float64(dtMillis) / 1000.0

	// 1. Движение: запоминаем стартовые точки для свипа коллизий.
	starts := make([]domain.Point, len(s.Dogs))
	for i, dog := range s.Dogs {
		starts[i] = dog.Pos
		if dog.Moving() {
			res := systems.ComputeMove(dog.Pos, dog.Speed, dt, s.Map.Roads)
			dog.Pos = res.Pos
			dog.Speed = res.Speed
		}
	}

	// 2. Подбор и сдача находок.
	picked, deposited := s.resolveGathering(starts)

	// 3. Активность. Зажатый стеной пес с обнуленной скоростью
	// считается бездействующим, как и пес, которого никто не рулит.
	for i, dog := range s.Dogs {
		if dog.Moving() || picked[i] || deposited[i] || dog.Steered {
			dog.LastActivity = s.time
		}
		dog.Steered = false
	}

	// 4. Ретайр бездействующих.
	retired := s.retireIdle(retireAfter)

	// 5. Спавн потеряшек: число псов берется уже после ретайра.
	s.spawnLoot(time.Duration(dtMillis) * time.Millisecond)

	return retired
}

// resolveGathering строит вход для системы столкновений и разыгрывает
// события в порядке их наступления. Потеряшки идут в списке предметов
// первыми, офисы после них: по индексу события видно, что именно
// зацепил пес.
func (s *Session) resolveGathering(starts []domain.Point) (picked, deposited []bool) {
	picked = make([]bool, len(s.Dogs))
	deposited = make([]bool, len(s.Dogs))

	gatherers := make([]systems.Gatherer, len(s.Dogs))
	for i, dog := range s.Dogs {
		gatherers[i] = systems.Gatherer{
			Start: starts[i],
			End:   dog.Pos,
			Width: domain.GathererWidth,
		}
	}

	lootCount := len(s.Loot)
	items := make([]systems.Item, 0, lootCount+len(s.Map.Offices))
	for _, l := range s.Loot {
		items = append(items, systems.Item{Pos: l.Pos, Radius: domain.LootRadius})
	}
	for _, o := range s.Map.Offices {
		items = append(items, systems.Item{Pos: o.Point(), Radius: domain.OfficeRadius})
	}

	collected := make(map[int]bool)
	for _, ev := range systems.FindGatherEvents(gatherers, items) {
		dog := s.Dogs[ev.GathererIdx]

		if ev.ItemIdx < lootCount {
			// Потеряшка: уже подобранную пропускаем; с полным рюкзаком
			// проходим мимо - подберем в другой раз.
			if collected[ev.ItemIdx] || dog.Bag.IsFull() {
				continue
			}
			item := s.Loot[ev.ItemIdx]
			if dog.Bag.TryAdd(item.ID, item.Type) {
				collected[ev.ItemIdx] = true
				picked[ev.GathererIdx] = true
			}
			continue
		}

		// Офис: сдается все содержимое рюкзака.
		if dog.Bag.IsEmpty() {
			continue
		}
		for _, it := range dog.Bag.Drain() {
			if it.Type >= 0 && it.Type < len(s.Map.LootTypes) {
				dog.Score += s.Map.LootTypes[it.Type].Value
			}
		}
		deposited[ev.GathererIdx] = true
	}

	if len(collected) > 0 {
		remaining := make([]domain.LootItem, 0, len(s.Loot)-len(collected))
		for i, l := range s.Loot {
			if !collected[i] {
				remaining = append(remaining, l)
			}
		}
		s.Loot = remaining
	}
	return picked, deposited
}

// retireIdle убирает с карты псов, бездействующих дольше порога,
// сохраняя порядок оставшихся.
func (s *Session) retireIdle(after time.Duration) []*domain.Dog {
	threshold := after.Milliseconds()
	if threshold <= 0 {
		return nil
	}

	var retired []*domain.Dog
	kept := s.Dogs[:0]
	for _, dog := range s.Dogs {
		if s.time-dog.LastActivity >= threshold {
			retired = append(retired, dog)
		} else {
			kept = append(kept, dog)
		}
	}
	for i := len(kept); i < len(s.Dogs); i++ {
		s.Dogs[i] = nil
	}
	s.Dogs = kept
	return retired
}

// spawnLoot добавляет на карту столько потеряшек, сколько решил
// генератор. Формула генератора гарантирует, что потеряшек не станет
// больше, чем псов.
func (s *Session) spawnLoot(dt time.Duration) {
	if len(s.Map.LootTypes) == 0 || len(s.Map.Roads) == 0 {
		return
	}
	n := s.lootGen.Count(dt, len(s.Loot), len(s.Dogs))
	for i := 0; i < n; i++ {
		s.Loot = append(s.Loot, domain.LootItem{
			ID:   s.nextLootID,
			Type: s.rng.Intn(len(s.Map.LootTypes)),
			Pos:  s.lootPoint(),
		})
		s.nextLootID++
	}
}

// lootPoint выбирает точку на оси случайной дороги с отступом от
// концов. На дороге короче двух отступов потеряшка ложится в середину.
func (s *Session) lootPoint() domain.Point {
	road := s.Map.Roads[s.rng.Intn(len(s.Map.Roads))]
	lo, hi := road.Span()

	from, to := lo+domain.LootSpawnMargin, hi-domain.LootSpawnMargin
	var v float64
	if from > to {
		v = (lo + hi) / 2
	} else {
		v = from + s.rng.Float64()*(to-from)
	}

	if road.IsHorizontal() {
		return domain.Point{X: v, Y: road.AxisLine()}
	}
	return domain.Point{X: road.AxisLine(), Y: v}
}

// spawnPoint возвращает стартовую точку нового пса: начало первой
// дороги либо, в режиме случайного спавна, произвольная точка оси
// произвольной дороги.
func (s *Session) spawnPoint() domain.Point {
	roads := s.Map.Roads
	if len(roads) == 0 {
		return domain.Point{}
	}
	if !s.randomSpawn {
		start := roads[0].Start
		return domain.Point{X: float64(start.X), Y: float64(start.Y)}
	}

	road := roads[s.rng.Intn(len(roads))]
	lo, hi := road.Span()
	v := lo + s.rng.Float64()*(hi-lo)
	if road.IsHorizontal() {
		return domain.Point{X: v, Y: road.AxisLine()}
	}
	return domain.Point{X: road.AxisLine(), Y: v}
}
