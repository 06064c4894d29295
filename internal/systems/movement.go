package systems

import (
	"dogwalk-server/internal/domain"
)

// MoveResult - результат продвижения пса за dt.
type MoveResult struct {
	Pos   domain.Point
	Speed domain.Vec2
	// Clamped: пес уперся в край коридора, компонента скорости обнулена.
	Clamped bool
}

// ComputeMove продвигает позицию на Speed*dt с зажимом к сети дорог.
// Не меняет состояние мира!
//
// Дорога-носитель ищется в порядке перечисления в карте: сначала дорога,
// параллельная движению, чей коридор содержит текущую позицию; если такой
// нет - перпендикулярная (тогда двигаться можно только в пределах её
// ширины). Если носителя нет вообще, пес останавливается на месте.
func ComputeMove(pos domain.Point, speed domain.Vec2, dtSeconds float64, roads []domain.Road) MoveResult {
	if speed.IsZero() {
		return MoveResult{Pos: pos, Speed: speed}
	}
	if speed.X != 0 {
		return moveAlongX(pos, speed, dtSeconds, roads)
	}
	return moveAlongY(pos, speed, dtSeconds, roads)
}

func moveAlongX(pos domain.Point, speed domain.Vec2, dt float64, roads []domain.Road) MoveResult {
	res := MoveResult{Pos: pos, Speed: speed}
	newX := pos.X + speed.X*dt

	// 1. Дорога, параллельная движению: зажимаем к её продленным концам
	for _, road := range roads {
		if !road.IsHorizontal() || !road.ContainsPoint(pos, domain.CoordEpsilon) {
			continue
		}
		lo, hi := road.Span()
		res.Pos.X, res.Clamped = clampAxis(newX, lo-domain.RoadHalfWidth, hi+domain.RoadHalfWidth)
		if res.Clamped {
			res.Speed.X = 0
		}
		return res
	}

	// 2. Перпендикулярная дорога: движение только в пределах её ширины
	for _, road := range roads {
		if !road.IsVertical() || !road.ContainsPoint(pos, domain.CoordEpsilon) {
			continue
		}
		axis := road.AxisLine()
		res.Pos.X, res.Clamped = clampAxis(newX, axis-domain.RoadHalfWidth, axis+domain.RoadHalfWidth)
		if res.Clamped {
			res.Speed.X = 0
		}
		return res
	}

	// 3. Носителя нет - останавливаемся на месте
	res.Speed.X = 0
	res.Clamped = true
	return res
}

func moveAlongY(pos domain.Point, speed domain.Vec2, dt float64, roads []domain.Road) MoveResult {
	res := MoveResult{Pos: pos, Speed: speed}
	newY := pos.Y + speed.Y*dt

	for _, road := range roads {
		if !road.IsVertical() || !road.ContainsPoint(pos, domain.CoordEpsilon) {
			continue
		}
		lo, hi := road.Span()
		res.Pos.Y, res.Clamped = clampAxis(newY, lo-domain.RoadHalfWidth, hi+domain.RoadHalfWidth)
		if res.Clamped {
			res.Speed.Y = 0
		}
		return res
	}

	for _, road := range roads {
		if !road.IsHorizontal() || !road.ContainsPoint(pos, domain.CoordEpsilon) {
			continue
		}
		axis := road.AxisLine()
		res.Pos.Y, res.Clamped = clampAxis(newY, axis-domain.RoadHalfWidth, axis+domain.RoadHalfWidth)
		if res.Clamped {
			res.Speed.Y = 0
		}
		return res
	}

	res.Speed.Y = 0
	res.Clamped = true
	return res
}

// clampAxis зажимает значение в [lo; hi] и сообщает, был ли зажим.
func clampAxis(v, lo, hi float64) (float64, bool) {
	if v < lo {
		return lo, true
	}
	if v > hi {
		return hi, true
	}
	return v, false
}
