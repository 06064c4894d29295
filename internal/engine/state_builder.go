package engine

import (
	"strconv"

	"dogwalk-server/internal/domain"
	"dogwalk-server/pkg/api"
)

// Проекции доменного состояния в wire-DTO. Состояние сессии может
// меняться только горутиной-владельцем, поэтому все функции здесь
// снимают полные копии.

// BuildState создает снимок сессии для /game/state и событий стрима.
func BuildState(s *Session) api.StateResponse {
	players := make(map[string]api.PlayerState, len(s.Dogs))
	for _, dog := range s.Dogs {
		bag := make([]api.BagItem, 0, dog.Bag.Size())
		for _, it := range dog.Bag.Items() {
			bag = append(bag, api.BagItem{ID: it.ID, Type: it.Type})
		}
		players[strconv.FormatUint(dog.ID, 10)] = api.PlayerState{
			Pos:   [2]float64{dog.Pos.X, dog.Pos.Y},
			Speed: [2]float64{dog.Speed.X, dog.Speed.Y},
			Dir:   dog.Dir.String(),
			Bag:   bag,
			Score: dog.Score,
		}
	}

	lost := make(map[string]api.LostObject, len(s.Loot))
	for _, item := range s.Loot {
		lost[strconv.FormatUint(item.ID, 10)] = api.LostObject{
			Type: item.Type,
			Pos:  [2]float64{item.Pos.X, item.Pos.Y},
		}
	}

	return api.StateResponse{Players: players, LostObjects: lost}
}

// BuildPlayerList создает ответ /game/players: id -> имя.
func BuildPlayerList(players []*Player) map[string]api.PlayerName {
	out := make(map[string]api.PlayerName, len(players))
	for _, p := range players {
		out[strconv.FormatUint(p.ID, 10)] = api.PlayerName{Name: p.Name}
	}
	return out
}

// BuildMapList создает краткий список карт для /maps.
func BuildMapList(maps []*domain.Map) []api.MapListItem {
	items := make([]api.MapListItem, 0, len(maps))
	for _, m := range maps {
		items = append(items, api.MapListItem{ID: m.ID, Name: m.Name})
	}
	return items
}

// BuildMapDetail создает полное описание карты для /maps/{id}.
func BuildMapDetail(m *domain.Map) api.MapDetail {
	detail := api.MapDetail{
		ID:        m.ID,
		Name:      m.Name,
		Roads:     make([]api.RoadView, 0, len(m.Roads)),
		Buildings: make([]api.BuildingView, 0, len(m.Buildings)),
		Offices:   make([]api.OfficeView, 0, len(m.Offices)),
	}

	for _, road := range m.Roads {
		view := api.RoadView{X0: road.Start.X, Y0: road.Start.Y}
		if road.IsHorizontal() {
			x1 := road.End.X
			view.X1 = &x1
		} else {
			y1 := road.End.Y
			view.Y1 = &y1
		}
		detail.Roads = append(detail.Roads, view)
	}

	for _, b := range m.Buildings {
		detail.Buildings = append(detail.Buildings, api.BuildingView{
			X: b.Bounds.X, Y: b.Bounds.Y, W: b.Bounds.W, H: b.Bounds.H,
		})
	}

	for _, o := range m.Offices {
		detail.Offices = append(detail.Offices, api.OfficeView{
			ID:      o.ID,
			X:       o.Pos.X,
			Y:       o.Pos.Y,
			OffsetX: o.Offset.DX,
			OffsetY: o.Offset.DY,
		})
	}

	for _, lt := range m.LootTypes {
		detail.LootTypes = append(detail.LootTypes, api.LootTypeView{
			Name:     lt.Name,
			File:     lt.File,
			Kind:     lt.Kind,
			Rotation: lt.Rotation,
			Color:    lt.Color,
			Scale:    lt.Scale,
			Value:    lt.Value,
		})
	}

	return detail
}
