package engine

import (
	"sort"

	"dogwalk-server/internal/core/types"
)

// Player - учетная запись вошедшего игрока. Сам пес живет в сессии
// карты; запись связывает его id с токеном и картой.
type Player struct {
	ID    uint64
	Token types.Token
	Name  string
	MapID string
}

// Registry хранит живые учетные записи. Все обращения идут через
// горутину-владельца игрового состояния, поэтому мьютекс не нужен.
type Registry struct {
	tokens  *tokenSource
	byToken map[types.Token]*Player
	byID    map[uint64]*Player
	nextID  uint64
}

func NewRegistry() *Registry {
	return &Registry{
		tokens:  newTokenSource(),
		byToken: make(map[types.Token]*Player),
		byID:    make(map[uint64]*Player),
	}
}

// Add регистрирует нового игрока на карте и выдает ему токен.
// Идентификаторы монотонно растут в пределах процесса и никогда
// не переиспользуются; имена уникальности не требуют.
func (r *Registry) Add(mapID, name string) *Player {
	token := r.tokens.Generate()
	for {
		if _, busy := r.byToken[token]; !busy {
			break
		}
		token = r.tokens.Generate()
	}

	p := &Player{
		ID:    r.nextID,
		Token: token,
		Name:  name,
		MapID: mapID,
	}
	r.nextID++
	r.byToken[p.Token] = p
	r.byID[p.ID] = p
	return p
}

// FindByToken возвращает игрока по токену либо nil.
func (r *Registry) FindByToken(token types.Token) *Player {
	return r.byToken[token]
}

// FindByID возвращает игрока по id либо nil.
func (r *Registry) FindByID(id uint64) *Player {
	return r.byID[id]
}

// OnMap возвращает игроков карты в порядке возрастания id.
func (r *Registry) OnMap(mapID string) []*Player {
	var players []*Player
	for _, p := range r.byID {
		if p.MapID == mapID {
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].ID < players[j].ID
	})
	return players
}

// Drop удаляет учетную запись: токен перестает приниматься.
func (r *Registry) Drop(id uint64) {
	if p, ok := r.byID[id]; ok {
		delete(r.byToken, p.Token)
		delete(r.byID, id)
	}
}

// Len возвращает число живых учетных записей.
func (r *Registry) Len() int {
	return len(r.byID)
}
