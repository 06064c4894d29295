package systems

import (
	"container/heap"

	"dogwalk-server/internal/domain"
)

// Система столкновений: за один тик каждый пес описывает отрезок от
// старой позиции к новой, а предметы (потеряшки, базы) являются
// неподвижными точками с радиусом. Событие сбора происходит, когда
// перпендикулярное расстояние от точки до отрезка не превышает сумму
// полуширины пса и радиуса предмета.
//
// Система чисто геометрическая: она НЕ решает, состоится ли подбор
// (вместимость сумки, уже подобранный предмет) - это дело игровой
// сессии, которая разыгрывает события по порядку.

// Gatherer - перемещение собирателя за тик.
type Gatherer struct {
	Start domain.Point
	End   domain.Point
	Width float64 // полуширина, м
}

// Item - неподвижный предмет на карте.
type Item struct {
	Pos    domain.Point
	Radius float64
}

// GatherEvent - факт пересечения собирателя с предметом.
// Индексы ссылаются на слайсы, переданные в FindGatherEvents.
type GatherEvent struct {
	GathererIdx int
	ItemIdx     int
	SqDistance  float64 // квадрат расстояния в момент сближения
	T           float64 // доля пути [0..1], на которой достигнуто сближение
}

// TryCollectPoint проецирует точку c на отрезок ab и возвращает квадрат
// расстояния до ближайшей точки отрезка и долю пути t, на которой она
// достигается. ok == false, если проекция лежит вне отрезка либо
// отрезок вырожден (a == b): неподвижный собиратель ничего не собирает.
func TryCollectPoint(a, b, c domain.Point) (sqDist, t float64, ok bool) {
	ux := c.X - a.X
	uy := c.Y - a.Y
	vx := b.X - a.X
	vy := b.Y - a.Y

	denom := vx*vx + vy*vy
	if denom == 0 {
		return 0, 0, false
	}

	t = (ux*vx + uy*vy) / denom
	if t < 0 || t > 1 {
		return 0, 0, false
	}

	nx := a.X + t*vx - c.X
	ny := a.Y + t*vy - c.Y
	return nx*nx + ny*ny, t, true
}

// FindGatherEvents перебирает все пары (собиратель, предмет) и
// возвращает события сбора, отсортированные по времени сближения.
// Порядок детерминирован: при равном T раньше идет собиратель с
// меньшим индексом.
func FindGatherEvents(gatherers []Gatherer, items []Item) []GatherEvent {
	queue := make(EventQueue, 0)
	heap.Init(&queue)

	for gi := range gatherers {
		g := &gatherers[gi]
		if g.Start == g.End {
			continue
		}
		for ii := range items {
			it := &items[ii]
			sqDist, t, ok := TryCollectPoint(g.Start, g.End, it.Pos)
			if !ok {
				continue
			}
			reach := g.Width + it.Radius
			if sqDist > reach*reach {
				continue
			}
			heap.Push(&queue, &GatherEvent{
				GathererIdx: gi,
				ItemIdx:     ii,
				SqDistance:  sqDist,
				T:           t,
			})
		}
	}

	events := make([]GatherEvent, 0, queue.Len())
	for queue.Len() > 0 {
		events = append(events, *heap.Pop(&queue).(*GatherEvent))
	}
	return events
}
