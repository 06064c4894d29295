package domain

// GridOffset - смещение спрайта офиса относительно его позиции.
type GridOffset struct {
	DX int
	DY int
}

// Building - декоративный прямоугольник. В коллизиях не участвует:
// псы ходят только по коридорам дорог.
type Building struct {
	Bounds Rect
}

// Office - пункт сдачи находок. Логически это точка с радиусом
// OfficeRadius; Offset нужен только клиентскому рендеру.
type Office struct {
	ID     string
	Pos    GridPoint
	Offset GridOffset
}

// Point возвращает центр офиса в непрерывных координатах.
func (o Office) Point() Point {
	return Point{X: float64(o.Pos.X), Y: float64(o.Pos.Y)}
}

// LootType - тип находки из конфига карты. Value - очки за сдачу,
// остальные поля презентационные и сервером не интерпретируются.
type LootType struct {
	Name     string
	File     string
	Kind     string
	Rotation *int
	Color    *string
	Scale    *float64
	Value    int
}

// LootItem - находка, лежащая на дороге.
type LootItem struct {
	ID   uint64
	Type int
	Pos  Point
}

// Map - неизменяемая после загрузки геометрия уровня.
// DogSpeed и BagCapacity уже разрешены относительно глобальных
// значений по умолчанию на этапе загрузки конфига.
type Map struct {
	ID          string
	Name        string
	Roads       []Road
	Buildings   []Building
	Offices     []Office
	LootTypes   []LootType
	DogSpeed    float64
	BagCapacity int
}

// ContainsPoint сообщает, лежит ли точка в объединении коридоров карты.
func (m *Map) ContainsPoint(p Point, eps float64) bool {
	for _, road := range m.Roads {
		if road.ContainsPoint(p, eps) {
			return true
		}
	}
	return false
}
