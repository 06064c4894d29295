package api

// --- REST: СЕРВЕР -> КЛИЕНТ ---

// MapListItem - краткая запись в списке карт (/api/v1/maps).
type MapListItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MapDetail - полное описание карты (/api/v1/maps/{id}).
// Геометрия отдается в том же виде, в каком она задана в конфиге,
// чтобы клиент мог отрисовать уровень без дополнительных запросов.
type MapDetail struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Roads     []RoadView     `json:"roads"`
	Buildings []BuildingView `json:"buildings"`
	Offices   []OfficeView   `json:"offices"`
	LootTypes []LootTypeView `json:"lootTypes,omitempty"`
}

// RoadView - отрезок дороги. Ровно одно из полей X1/Y1 присутствует:
// X1 у горизонтальной дороги, Y1 у вертикальной.
type RoadView struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

// BuildingView - прямоугольник здания (чисто декоративный).
type BuildingView struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// OfficeView - пункт сдачи находок. Offset задает смещение спрайта.
type OfficeView struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

// LootTypeView - описание типа находки. Кроме Value все поля
// презентационные и прокидываются клиенту как есть.
type LootTypeView struct {
	Name     string   `json:"name"`
	File     string   `json:"file"`
	Kind     string   `json:"type"`
	Rotation *int     `json:"rotation,omitempty"`
	Color    *string  `json:"color,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
	Value    int      `json:"value"`
}

// JoinResponse - ответ на вход в игру.
type JoinResponse struct {
	// AuthToken - 32 hex-символа. Клиент обязан передавать его
	// в заголовке Authorization: Bearer <token>.
	AuthToken string `json:"authToken"`
	PlayerID  uint64 `json:"playerId"`
}

// PlayerName - значение в ответе /api/v1/game/players.
// Ключом объекта служит строковый id игрока.
type PlayerName struct {
	Name string `json:"name"`
}

// StateResponse - снимок игрового состояния карты наблюдателя.
type StateResponse struct {
	Players     map[string]PlayerState `json:"players"`
	LostObjects map[string]LostObject  `json:"lostObjects"`
}

// PlayerState - положение и инвентарь одного пса.
type PlayerState struct {
	Pos   [2]float64 `json:"pos"`
	Speed [2]float64 `json:"speed"`
	// Dir - направление взгляда: "U", "D", "L" или "R".
	Dir   string    `json:"dir"`
	Bag   []BagItem `json:"bag"`
	Score int       `json:"score"`
}

// BagItem - находка в рюкзаке.
type BagItem struct {
	ID   uint64 `json:"id"`
	Type int    `json:"type"`
}

// LostObject - находка, лежащая на дороге.
type LostObject struct {
	Type int        `json:"type"`
	Pos  [2]float64 `json:"pos"`
}

// RecordItem - строка таблицы рекордов, отсортированной по
// (score desc, playTime asc, name asc).
type RecordItem struct {
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	PlayTime float64 `json:"playTime"`
}

// ErrorResponse - единый формат тела ошибки для всех /api/ ответов.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- REST: КЛИЕНТ -> СЕРВЕР ---

// JoinRequest - вход в игру (/api/v1/game/join).
type JoinRequest struct {
	UserName string `json:"userName"`
	MapID    string `json:"mapId"`
}

// ActionRequest - управление псом (/api/v1/game/player/action).
// Пустая строка означает остановку.
type ActionRequest struct {
	Move *string `json:"move"`
}

// TickRequest - внешний сдвиг игрового времени (/api/v1/game/tick).
// Доступен только когда сервер запущен без --tick-period.
type TickRequest struct {
	TimeDelta *int64 `json:"timeDelta"`
}

// --- WEBSOCKET: СЕРВЕР -> КЛИЕНТ ---

// Типы событий стрима.
const (
	StreamState   = "state"
	StreamJoined  = "joined"
	StreamRetired = "retired"
)

// StreamEvent - событие live-стрима (/ws). После каждого тика подписчик
// получает событие "state" со снимком своей карты; входы и уходы игроков
// приходят отдельными событиями.
type StreamEvent struct {
	Type  string `json:"type"`
	MapID string `json:"mapId"`
	// Time - игровое время карты в миллисекундах.
	Time     int64          `json:"time"`
	State    *StateResponse `json:"state,omitempty"`
	PlayerID uint64         `json:"playerId,omitempty"`
	Name     string         `json:"name,omitempty"`
}
