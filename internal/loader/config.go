package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pixil98/go-errors"

	"dogwalk-server/internal/domain"
)

// Значения по умолчанию для полей, которые конфиг может не задавать.
const (
	DefaultDogSpeed        = 1.0
	DefaultBagCapacity     = 3
	DefaultRetirementSec   = 60.0
	DefaultLootPeriodSec   = 5.0
	DefaultLootProbability = 0.25
)

// GameConfig - корень игрового конфига в том виде, в каком он лежит
// в JSON-файле. Указатели отличают "поле не задано" от нулевого
// значения: для не заданных полей действует глобальный дефолт.
type GameConfig struct {
	DefaultDogSpeed     *float64             `json:"defaultDogSpeed,omitempty"`
	DefaultBagCapacity  *int                 `json:"defaultBagCapacity,omitempty"`
	DogRetirementTime   *float64             `json:"dogRetirementTime,omitempty"`
	LootGeneratorConfig *LootGeneratorConfig `json:"lootGeneratorConfig,omitempty"`
	Maps                []MapConfig          `json:"maps"`
}

// LootGeneratorConfig - параметры генератора потеряшек, секунды.
type LootGeneratorConfig struct {
	Period      float64 `json:"period"`
	Probability float64 `json:"probability"`
}

// MapConfig - одна карта.
type MapConfig struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	DogSpeed    *float64         `json:"dogSpeed,omitempty"`
	BagCapacity *int             `json:"bagCapacity,omitempty"`
	Roads       []RoadConfig     `json:"roads"`
	Buildings   []BuildingConfig `json:"buildings"`
	Offices     []OfficeConfig   `json:"offices"`
	LootTypes   []LootTypeConfig `json:"lootTypes,omitempty"`
}

// RoadConfig - отрезок дороги. Ровно одно из полей x1/y1 должно быть
// задано: x1 у горизонтальной дороги, y1 у вертикальной.
type RoadConfig struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

// BuildingConfig - декоративный прямоугольник здания.
type BuildingConfig struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// OfficeConfig - пункт сдачи находок.
type OfficeConfig struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

// LootTypeConfig - тип находки. Кроме value все поля презентационные.
type LootTypeConfig struct {
	Name     string   `json:"name"`
	File     string   `json:"file"`
	Type     string   `json:"type"`
	Rotation *int     `json:"rotation,omitempty"`
	Color    *string  `json:"color,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
	Value    int      `json:"value"`
}

// Settings - разобранный и провалидированный конфиг, готовый к
// передаче в игровое ядро.
type Settings struct {
	RetireAfter     time.Duration
	LootInterval    time.Duration
	LootProbability float64
	Maps            []*domain.Map
}

// Load читает и разбирает файл игрового конфига.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	settings, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return settings, nil
}

// Parse разбирает сырой JSON конфига, валидирует его и строит Settings.
func Parse(data []byte) (*Settings, error) {
	var cfg GameConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg.build(), nil
}

// Validate собирает ВСЕ проблемы конфига разом, а не первую попавшуюся:
// админу, правящему карту, нужен полный список.
func (c *GameConfig) Validate() error {
	el := errors.NewErrorList()

	if c.DefaultDogSpeed != nil && *c.DefaultDogSpeed <= 0 {
		el.Add(fmt.Errorf("defaultDogSpeed must be positive, got %v", *c.DefaultDogSpeed))
	}
	if c.DefaultBagCapacity != nil && *c.DefaultBagCapacity <= 0 {
		el.Add(fmt.Errorf("defaultBagCapacity must be positive, got %d", *c.DefaultBagCapacity))
	}
	if c.DogRetirementTime != nil && *c.DogRetirementTime <= 0 {
		el.Add(fmt.Errorf("dogRetirementTime must be positive, got %v", *c.DogRetirementTime))
	}
	if lg := c.LootGeneratorConfig; lg != nil {
		if lg.Period <= 0 {
			el.Add(fmt.Errorf("lootGeneratorConfig.period must be positive, got %v", lg.Period))
		}
		if lg.Probability < 0 || lg.Probability > 1 {
			el.Add(fmt.Errorf("lootGeneratorConfig.probability must be in [0, 1], got %v", lg.Probability))
		}
	}

	seen := make(map[string]bool, len(c.Maps))
	for i := range c.Maps {
		m := &c.Maps[i]
		if seen[m.ID] {
			el.Add(fmt.Errorf("duplicate map id %q", m.ID))
		}
		seen[m.ID] = true
		if err := m.Validate(); err != nil {
			el.Add(fmt.Errorf("map %q: %w", m.ID, err))
		}
	}

	return el.Err()
}

func (m *MapConfig) Validate() error {
	el := errors.NewErrorList()

	if m.ID == "" {
		el.Add(fmt.Errorf("id is required"))
	}
	if m.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if m.DogSpeed != nil && *m.DogSpeed <= 0 {
		el.Add(fmt.Errorf("dogSpeed must be positive, got %v", *m.DogSpeed))
	}
	if m.BagCapacity != nil && *m.BagCapacity <= 0 {
		el.Add(fmt.Errorf("bagCapacity must be positive, got %d", *m.BagCapacity))
	}

	if len(m.Roads) == 0 {
		el.Add(fmt.Errorf("at least one road is required"))
	}
	for i := range m.Roads {
		if err := m.Roads[i].Validate(); err != nil {
			el.Add(fmt.Errorf("road %d: %w", i, err))
		}
	}

	offices := make(map[string]bool, len(m.Offices))
	for _, o := range m.Offices {
		if o.ID == "" {
			el.Add(fmt.Errorf("office id is required"))
			continue
		}
		if offices[o.ID] {
			el.Add(fmt.Errorf("duplicate office id %q", o.ID))
		}
		offices[o.ID] = true
	}

	for i, lt := range m.LootTypes {
		if lt.Name == "" {
			el.Add(fmt.Errorf("loot type %d: name is required", i))
		}
		if lt.Value < 0 {
			el.Add(fmt.Errorf("loot type %d: value must be non-negative, got %d", i, lt.Value))
		}
	}

	return el.Err()
}

func (r *RoadConfig) Validate() error {
	el := errors.NewErrorList()

	if r.X1 == nil && r.Y1 == nil {
		el.Add(fmt.Errorf("either x1 or y1 must be set"))
	}
	if r.X1 != nil && r.Y1 != nil {
		el.Add(fmt.Errorf("x1 and y1 are mutually exclusive"))
	}

	return el.Err()
}

// build превращает провалидированный конфиг в Settings, разрешая
// каскад дефолтов: поле карты -> глобальное поле -> константа.
func (c *GameConfig) build() *Settings {
	defSpeed := DefaultDogSpeed
	if c.DefaultDogSpeed != nil {
		defSpeed = *c.DefaultDogSpeed
	}
	defBag := DefaultBagCapacity
	if c.DefaultBagCapacity != nil {
		defBag = *c.DefaultBagCapacity
	}

	settings := &Settings{
		RetireAfter:     secondsToDuration(DefaultRetirementSec),
		LootInterval:    secondsToDuration(DefaultLootPeriodSec),
		LootProbability: DefaultLootProbability,
		Maps:            make([]*domain.Map, 0, len(c.Maps)),
	}
	if c.DogRetirementTime != nil {
		settings.RetireAfter = secondsToDuration(*c.DogRetirementTime)
	}
	if lg := c.LootGeneratorConfig; lg != nil {
		settings.LootInterval = secondsToDuration(lg.Period)
		settings.LootProbability = lg.Probability
	}

	for i := range c.Maps {
		settings.Maps = append(settings.Maps, c.Maps[i].build(defSpeed, defBag))
	}
	return settings
}

func (m *MapConfig) build(defSpeed float64, defBag int) *domain.Map {
	out := &domain.Map{
		ID:          m.ID,
		Name:        m.Name,
		DogSpeed:    defSpeed,
		BagCapacity: defBag,
		Roads:       make([]domain.Road, 0, len(m.Roads)),
		Buildings:   make([]domain.Building, 0, len(m.Buildings)),
		Offices:     make([]domain.Office, 0, len(m.Offices)),
		LootTypes:   make([]domain.LootType, 0, len(m.LootTypes)),
	}
	if m.DogSpeed != nil {
		out.DogSpeed = *m.DogSpeed
	}
	if m.BagCapacity != nil {
		out.BagCapacity = *m.BagCapacity
	}

	for _, r := range m.Roads {
		if r.X1 != nil {
			out.Roads = append(out.Roads, domain.NewHorizontalRoad(r.X0, r.Y0, *r.X1))
		} else {
			out.Roads = append(out.Roads, domain.NewVerticalRoad(r.X0, r.Y0, *r.Y1))
		}
	}
	for _, b := range m.Buildings {
		out.Buildings = append(out.Buildings, domain.Building{
			Bounds: domain.Rect{X: b.X, Y: b.Y, W: b.W, H: b.H},
		})
	}
	for _, o := range m.Offices {
		out.Offices = append(out.Offices, domain.Office{
			ID:     o.ID,
			Pos:    domain.GridPoint{X: o.X, Y: o.Y},
			Offset: domain.GridOffset{DX: o.OffsetX, DY: o.OffsetY},
		})
	}
	for _, lt := range m.LootTypes {
		out.LootTypes = append(out.LootTypes, domain.LootType{
			Name:     lt.Name,
			File:     lt.File,
			Kind:     lt.Type,
			Rotation: lt.Rotation,
			Color:    lt.Color,
			Scale:    lt.Scale,
			Value:    lt.Value,
		})
	}
	return out
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
