package domain

// Геометрия движения и коллизий
const (
	// RoadHalfWidth - половина ширины проходимого коридора дороги.
	RoadHalfWidth = 0.4

	// GathererWidth - радиус движущегося пса при свипе коллизий.
	GathererWidth = 0.3

	// OfficeRadius - радиус срабатывания офиса при сдаче находок.
	OfficeRadius = 0.5

	// LootRadius - находка считается точкой.
	LootRadius = 0.0

	// CoordEpsilon - допуск при сравнении координат.
	CoordEpsilon = 1e-9
)

// LootSpawnMargin - отступ от концов дороги при размещении находок.
const LootSpawnMargin = 0.5
