package systems

// EventQueue реализует heap.Interface поверх событий сбора.
//
// Мы хотим min-heap по моменту наибольшего сближения: события
// разыгрываются в том порядке, в котором они физически происходят
// внутри тика. При равном времени порядок добивается до полного
// сравнением индексов собирателя и предмета, чтобы результат тика
// не зависел от порядка вставки в кучу.
type EventQueue []*GatherEvent

func (eq EventQueue) Len() int { return len(eq) }

func (eq EventQueue) Less(i, j int) bool {
	a, b := eq[i], eq[j]
	if a.T != b.T {
		return a.T < b.T
	}
	if a.GathererIdx != b.GathererIdx {
		return a.GathererIdx < b.GathererIdx
	}
	return a.ItemIdx < b.ItemIdx
}

func (eq EventQueue) Swap(i, j int) {
	eq[i], eq[j] = eq[j], eq[i]
}

func (eq *EventQueue) Push(x interface{}) {
	*eq = append(*eq, x.(*GatherEvent))
}

func (eq *EventQueue) Pop() interface{} {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // избегаем утечки памяти
	*eq = old[0 : n-1]
	return item
}
