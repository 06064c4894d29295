package domain

// Direction - направление взгляда пса.
type Direction uint8

const (
	DirectionNorth Direction = iota
	DirectionSouth
	DirectionWest
	DirectionEast
)

var directionNames = map[Direction]string{
	DirectionNorth: "U",
	DirectionSouth: "D",
	DirectionWest:  "L",
	DirectionEast:  "R",
}

var directionValues = map[string]Direction{
	"U": DirectionNorth,
	"D": DirectionSouth,
	"L": DirectionWest,
	"R": DirectionEast,
}

// String возвращает wire-представление направления ("U"/"D"/"L"/"R").
func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return "U"
}

// ParseDirection разбирает wire-букву направления. Пустая строка -
// это команда остановки, а не направление, поэтому здесь она невалидна.
func ParseDirection(s string) (Direction, bool) {
	d, ok := directionValues[s]
	return d, ok
}

// CollectedLoot - находка, лежащая в рюкзаке.
type CollectedLoot struct {
	ID   uint64
	Type int
}

// Bag - рюкзак с фиксированной вместимостью. Вместимость замораживается
// при создании пса и не меняется, даже если конфиг перечитан.
type Bag struct {
	capacity int
	items    []CollectedLoot
}

func NewBag(capacity int) Bag {
	return Bag{capacity: capacity}
}

// TryAdd кладет находку в рюкзак. Возвращает false, если рюкзак полон.
func (b *Bag) TryAdd(id uint64, lootType int) bool {
	if len(b.items) >= b.capacity {
		return false
	}
	b.items = append(b.items, CollectedLoot{ID: id, Type: lootType})
	return true
}

// Drain опустошает рюкзак и возвращает прежнее содержимое.
func (b *Bag) Drain() []CollectedLoot {
	items := b.items
	b.items = nil
	return items
}

// Items возвращает содержимое рюкзака в порядке подбора.
func (b *Bag) Items() []CollectedLoot {
	return b.items
}

func (b *Bag) Size() int {
	return len(b.items)
}

func (b *Bag) Capacity() int {
	return b.capacity
}

func (b *Bag) IsFull() bool {
	return len(b.items) >= b.capacity
}

func (b *Bag) IsEmpty() bool {
	return len(b.items) == 0
}

// Dog - аватар игрока. ID совпадает с playerId из протокола и
// монотонно растет в рамках процесса.
type Dog struct {
	ID    uint64
	Name  string
	Pos   Point
	Speed Vec2
	Dir   Direction
	Bag   Bag
	Score int

	// Игровое время сессии в миллисекундах.
	JoinedAt     int64
	LastActivity int64

	// Steered взводится любой командой руления (включая остановку)
	// и сбрасывается ближайшим тиком при обновлении активности.
	Steered bool
}

// Moving сообщает, движется ли пес в данный момент.
func (d *Dog) Moving() bool {
	return !d.Speed.IsZero()
}
