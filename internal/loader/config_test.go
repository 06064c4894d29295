package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dogwalk-server/internal/domain"
)

const sampleConfig = `{
  "defaultDogSpeed": 2.5,
  "defaultBagCapacity": 4,
  "dogRetirementTime": 15.5,
  "lootGeneratorConfig": {
    "period": 5.0,
    "probability": 0.5
  },
  "maps": [
    {
      "id": "town",
      "name": "Town",
      "dogSpeed": 4.0,
      "roads": [
        {"x0": 0, "y0": 0, "x1": 40},
        {"x0": 40, "y0": 0, "y1": 30}
      ],
      "buildings": [
        {"x": 5, "y": 5, "w": 30, "h": 20}
      ],
      "offices": [
        {"id": "o0", "x": 40, "y": 30, "offsetX": 5, "offsetY": 0}
      ],
      "lootTypes": [
        {"name": "key", "file": "key.obj", "type": "obj", "rotation": 90, "value": 10},
        {"name": "wallet", "file": "wallet.obj", "type": "obj", "value": 30}
      ]
    },
    {
      "id": "village",
      "name": "Village",
      "bagCapacity": 1,
      "roads": [
        {"x0": 0, "y0": 0, "y1": 10}
      ],
      "buildings": [],
      "offices": []
    }
  ]
}`

func TestParseBuildsMapsWithDefaultFallthrough(t *testing.T) {
	settings, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if settings.RetireAfter != 15500*time.Millisecond {
		t.Errorf("RetireAfter = %v, want 15.5s", settings.RetireAfter)
	}
	if settings.LootInterval != 5*time.Second || settings.LootProbability != 0.5 {
		t.Errorf("loot tuning = %v/%v, want 5s/0.5",
			settings.LootInterval, settings.LootProbability)
	}
	if len(settings.Maps) != 2 {
		t.Fatalf("got %d maps, want 2", len(settings.Maps))
	}

	town := settings.Maps[0]
	// У карты задан собственный dogSpeed, вместимость наследуется.
	if town.DogSpeed != 4.0 {
		t.Errorf("town.DogSpeed = %v, want map-level 4.0", town.DogSpeed)
	}
	if town.BagCapacity != 4 {
		t.Errorf("town.BagCapacity = %d, want global default 4", town.BagCapacity)
	}

	village := settings.Maps[1]
	if village.DogSpeed != 2.5 {
		t.Errorf("village.DogSpeed = %v, want global default 2.5", village.DogSpeed)
	}
	if village.BagCapacity != 1 {
		t.Errorf("village.BagCapacity = %d, want map-level 1", village.BagCapacity)
	}
}

func TestParseBuildsRoadGeometry(t *testing.T) {
	settings, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	town := settings.Maps[0]

	if len(town.Roads) != 2 {
		t.Fatalf("got %d roads, want 2", len(town.Roads))
	}
	if !town.Roads[0].IsHorizontal() {
		t.Error("road 0 must be horizontal (x1 set)")
	}
	if !town.Roads[1].IsVertical() {
		t.Error("road 1 must be vertical (y1 set)")
	}
	if town.Roads[1].Start != (domain.GridPoint{X: 40, Y: 0}) ||
		town.Roads[1].End != (domain.GridPoint{X: 40, Y: 30}) {
		t.Errorf("road 1 = %+v, want (40,0)-(40,30)", town.Roads[1])
	}

	if len(town.Offices) != 1 || town.Offices[0].Offset.DX != 5 {
		t.Errorf("offices = %+v, want o0 with offsetX 5", town.Offices)
	}
	if len(town.LootTypes) != 2 || town.LootTypes[0].Rotation == nil {
		t.Fatalf("lootTypes = %+v, want 2 entries with rotation on the first", town.LootTypes)
	}
	if town.LootTypes[1].Value != 30 {
		t.Errorf("wallet value = %d, want 30", town.LootTypes[1].Value)
	}
}

func TestParseAppliesBuiltinDefaults(t *testing.T) {
	minimal := `{"maps": [{"id": "m", "name": "M", "roads": [{"x0": 0, "y0": 0, "x1": 5}]}]}`

	settings, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if settings.RetireAfter != 60*time.Second {
		t.Errorf("RetireAfter = %v, want builtin 60s", settings.RetireAfter)
	}
	if settings.LootInterval != 5*time.Second || settings.LootProbability != 0.25 {
		t.Errorf("loot tuning = %v/%v, want builtin 5s/0.25",
			settings.LootInterval, settings.LootProbability)
	}
	m := settings.Maps[0]
	if m.DogSpeed != DefaultDogSpeed || m.BagCapacity != DefaultBagCapacity {
		t.Errorf("map defaults = %v/%d, want %v/%d",
			m.DogSpeed, m.BagCapacity, DefaultDogSpeed, DefaultBagCapacity)
	}
}

func TestParseCollectsAllValidationErrors(t *testing.T) {
	broken := `{
      "dogRetirementTime": -1,
      "lootGeneratorConfig": {"period": 0, "probability": 1.5},
      "maps": [
        {"id": "", "name": "", "roads": []},
        {"id": "dup", "name": "A", "roads": [{"x0": 0, "y0": 0, "x1": 1, "y1": 1}]},
        {"id": "dup", "name": "B", "roads": [{"x0": 0, "y0": 0}]}
      ]
    }`

	_, err := Parse([]byte(broken))
	if err == nil {
		t.Fatal("Parse must reject a broken config")
	}

	// Репортятся все проблемы, а не только первая.
	msg := err.Error()
	for _, want := range []string{
		"dogRetirementTime",
		"period",
		"probability",
		"id is required",
		"at least one road",
		"duplicate map id",
		"mutually exclusive",
		"either x1 or y1",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message misses %q:\n%s", want, msg)
		}
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(settings.Maps) != 2 {
		t.Errorf("got %d maps, want 2", len(settings.Maps))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load must fail for a missing file")
	}
}
