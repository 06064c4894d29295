package domain

// Point - непрерывная координата на плоскости карты.
type Point struct {
	X float64
	Y float64
}

// Vec2 - скорость в клетках/секунду. У пса в любой момент времени
// ненулевой может быть максимум одна компонента.
type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// GridPoint - целочисленный узел сетки (концы дорог, офисы).
type GridPoint struct {
	X int
	Y int
}

// Rect - прямоугольник в целочисленных координатах (здания).
type Rect struct {
	X int
	Y int
	W int
	H int
}

// RoadAxis - ориентация дороги.
type RoadAxis uint8

const (
	RoadHorizontal RoadAxis = iota
	RoadVertical
)

// Road - осевой отрезок дороги с целочисленными концами.
// Вокруг оси лежит проходимый коридор полушириной RoadHalfWidth;
// две дороги, пересекающиеся под прямым углом, образуют перекресток
// внутри объединения своих коридоров.
type Road struct {
	Axis  RoadAxis
	Start GridPoint
	End   GridPoint
}

// NewHorizontalRoad строит дорогу вдоль оси X: (x0,y0) - (x1,y0).
func NewHorizontalRoad(x0, y0, x1 int) Road {
	return Road{
		Axis:  RoadHorizontal,
		Start: GridPoint{X: x0, Y: y0},
		End:   GridPoint{X: x1, Y: y0},
	}
}

// NewVerticalRoad строит дорогу вдоль оси Y: (x0,y0) - (x0,y1).
func NewVerticalRoad(x0, y0, y1 int) Road {
	return Road{
		Axis:  RoadVertical,
		Start: GridPoint{X: x0, Y: y0},
		End:   GridPoint{X: x0, Y: y1},
	}
}

func (r Road) IsHorizontal() bool {
	return r.Axis == RoadHorizontal
}

func (r Road) IsVertical() bool {
	return r.Axis == RoadVertical
}

// Span возвращает нормализованные границы дороги вдоль её оси движения
// (lo ≤ hi независимо от порядка концов в конфиге).
func (r Road) Span() (lo, hi float64) {
	var a, b int
	if r.IsHorizontal() {
		a, b = r.Start.X, r.End.X
	} else {
		a, b = r.Start.Y, r.End.Y
	}
	if a > b {
		a, b = b, a
	}
	return float64(a), float64(b)
}

// AxisLine возвращает фиксированную координату дороги поперек оси движения:
// Y у горизонтальной, X у вертикальной.
func (r Road) AxisLine() float64 {
	if r.IsHorizontal() {
		return float64(r.Start.Y)
	}
	return float64(r.Start.X)
}

// ContainsPoint сообщает, лежит ли точка в замкнутом коридоре дороги.
// Коридор продлён на полуширину за оба конца, так что два стыкующихся
// отрезка перекрываются. eps компенсирует накопленную ошибку float64.
func (r Road) ContainsPoint(p Point, eps float64) bool {
	lo, hi := r.Span()
	var along, across float64
	if r.IsHorizontal() {
		along, across = p.X, p.Y
	} else {
		along, across = p.Y, p.X
	}
	if abs(across-r.AxisLine()) > RoadHalfWidth+eps {
		return false
	}
	return along >= lo-RoadHalfWidth-eps && along <= hi+RoadHalfWidth+eps
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
