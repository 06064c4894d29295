package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"dogwalk-server/internal/core/types"
	"dogwalk-server/internal/domain"
	"dogwalk-server/internal/engine"
	"dogwalk-server/internal/infrastructure/storage"
	"dogwalk-server/pkg/api"
)

// testEnv поднимает полный стек: sqlite-хранилище, игровое ядро и
// HTTP-сервер поверх карты с одной дорогой x∈[0,10] и офисом на конце.
type testEnv struct {
	srv   *Server
	store *storage.RecordStore
}

func newTestEnv(t *testing.T, autoTick bool) *testEnv {
	t.Helper()

	store, err := storage.NewRecordStore("file:" + filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("NewRecordStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	town := &domain.Map{
		ID:    "town",
		Name:  "Test Town",
		Roads: []domain.Road{domain.NewHorizontalRoad(0, 0, 10)},
		Offices: []domain.Office{
			{ID: "o0", Pos: domain.GridPoint{X: 10, Y: 0}},
		},
		LootTypes: []domain.LootType{
			{Name: "key", Kind: "obj", Value: 3},
			{Name: "wallet", Kind: "obj", Value: 7},
		},
		DogSpeed:    2,
		BagCapacity: 3,
	}

	cfg := engine.Config{
		Seed: 7,
		Tuning: engine.Tuning{
			RetireAfter:     time.Hour,
			LootInterval:    5 * time.Second,
			LootProbability: 0,
		},
	}
	game := engine.NewGame(cfg, []*domain.Map{town}, store)
	game.Start()
	t.Cleanup(game.Stop)

	srv, err := New(game, store, Options{
		Addr:     "127.0.0.1:0",
		WWWRoot:  t.TempDir(),
		AutoTick: autoTick,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &testEnv{srv: srv, store: store}
}

// do гоняет запрос через полный хендлер сервера, включая middleware.
func (e *testEnv) do(t *testing.T, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) join(t *testing.T, name, mapID string) api.JoinResponse {
	t.Helper()

	rr := e.do(t, http.MethodPost, "/api/v1/game/join",
		`{"userName": "`+name+`", "mapId": "`+mapID+`"}`, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("join %q: status %d, body %s", name, rr.Code, rr.Body.String())
	}
	var res api.JoinResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("join response: %v", err)
	}
	return res
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var e api.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("error body %q: %v", rr.Body.String(), err)
	}
	return e
}

func TestMapEndpoints(t *testing.T) {
	env := newTestEnv(t, false)

	rr := env.do(t, http.MethodGet, "/api/v1/maps", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("maps list: status %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Cache-Control = %q", cc)
	}
	var list []api.MapListItem
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("maps list body: %v", err)
	}
	if len(list) != 1 || list[0].ID != "town" || list[0].Name != "Test Town" {
		t.Errorf("maps list = %+v", list)
	}

	rr = env.do(t, http.MethodGet, "/api/v1/maps/town", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("map detail: status %d", rr.Code)
	}
	var detail api.MapDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &detail); err != nil {
		t.Fatalf("map detail body: %v", err)
	}
	if len(detail.Roads) != 1 || detail.Roads[0].X1 == nil || *detail.Roads[0].X1 != 10 {
		t.Errorf("roads = %+v, want horizontal road to x1=10", detail.Roads)
	}
	if len(detail.LootTypes) != 2 || detail.LootTypes[1].Value != 7 {
		t.Errorf("lootTypes = %+v", detail.LootTypes)
	}

	rr = env.do(t, http.MethodGet, "/api/v1/maps/void", "", nil)
	if rr.Code != http.StatusNotFound || decodeError(t, rr).Code != api.CodeMapNotFound {
		t.Errorf("unknown map: status %d, body %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodDelete, "/api/v1/maps", "", nil)
	if rr.Code != http.StatusMethodNotAllowed || decodeError(t, rr).Code != api.CodeInvalidMethod {
		t.Errorf("DELETE maps: status %d, body %s", rr.Code, rr.Body.String())
	}
	if allow := rr.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Errorf("Allow = %q, want GET, HEAD", allow)
	}
}

func TestJoinEndpoint(t *testing.T) {
	env := newTestEnv(t, false)

	res := env.join(t, "Sharik", "town")
	if res.PlayerID != 0 {
		t.Errorf("first player id = %d, want 0", res.PlayerID)
	}
	if _, err := types.ParseToken(res.AuthToken); err != nil {
		t.Errorf("authToken %q: %v", res.AuthToken, err)
	}

	rr := env.do(t, http.MethodPost, "/api/v1/game/join", `{"userName": "`, nil)
	if rr.Code != http.StatusBadRequest || decodeError(t, rr).Code != api.CodeInvalidArgument {
		t.Errorf("broken JSON: status %d, body %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodPost, "/api/v1/game/join", `{"userName": "", "mapId": "town"}`, nil)
	if rr.Code != http.StatusBadRequest || decodeError(t, rr).Code != api.CodeInvalidArgument {
		t.Errorf("empty name: status %d, body %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodPost, "/api/v1/game/join", `{"userName": "Bobik", "mapId": "void"}`, nil)
	if rr.Code != http.StatusNotFound || decodeError(t, rr).Code != api.CodeMapNotFound {
		t.Errorf("unknown map: status %d, body %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/v1/game/join", "", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET join: status %d", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); allow != "POST" {
		t.Errorf("Allow = %q, want POST", allow)
	}
}

func TestAuthorizationErrors(t *testing.T) {
	env := newTestEnv(t, false)
	env.join(t, "Sharik", "town")

	for _, path := range []string{"/api/v1/game/state", "/api/v1/game/players"} {
		rr := env.do(t, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusUnauthorized || decodeError(t, rr).Code != api.CodeInvalidToken {
			t.Errorf("%s without header: status %d, body %s", path, rr.Code, rr.Body.String())
		}

		rr = env.do(t, http.MethodGet, path, "", bearer("not-a-token"))
		if rr.Code != http.StatusUnauthorized || decodeError(t, rr).Code != api.CodeInvalidToken {
			t.Errorf("%s malformed token: status %d, body %s", path, rr.Code, rr.Body.String())
		}

		// Корректный по форме, но никому не выданный токен.
		rr = env.do(t, http.MethodGet, path, "", bearer(strings.Repeat("ab", 16)))
		if rr.Code != http.StatusUnauthorized || decodeError(t, rr).Code != api.CodeUnknownToken {
			t.Errorf("%s unknown token: status %d, body %s", path, rr.Code, rr.Body.String())
		}
	}
}

func TestActionAndTickFlow(t *testing.T) {
	env := newTestEnv(t, false)
	res := env.join(t, "Sharik", "town")

	rr := env.do(t, http.MethodPost, "/api/v1/game/player/action",
		`{"move": "R"}`, bearer(res.AuthToken))
	if rr.Code != http.StatusOK || rr.Body.String() != "{}" {
		t.Fatalf("action: status %d, body %q", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodPost, "/api/v1/game/tick", `{"timeDelta": 1000}`, nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "{}" {
		t.Fatalf("tick: status %d, body %q", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/v1/game/state", "", bearer(res.AuthToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("state: status %d", rr.Code)
	}
	var state api.StateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
		t.Fatalf("state body: %v", err)
	}
	dog, ok := state.Players["0"]
	if !ok {
		t.Fatalf("players = %+v, want entry for id 0", state.Players)
	}
	if dog.Pos != [2]float64{2, 0} || dog.Speed != [2]float64{2, 0} || dog.Dir != "R" {
		t.Errorf("after 1s at speed 2: %+v", dog)
	}
	if len(state.LostObjects) != 0 {
		t.Errorf("lostObjects = %+v, want none with probability 0", state.LostObjects)
	}

	rr = env.do(t, http.MethodGet, "/api/v1/game/players", "", bearer(res.AuthToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("players: status %d", rr.Code)
	}
	var players map[string]api.PlayerName
	if err := json.Unmarshal(rr.Body.Bytes(), &players); err != nil {
		t.Fatalf("players body: %v", err)
	}
	if players["0"].Name != "Sharik" {
		t.Errorf("players = %+v", players)
	}
}

func TestActionValidation(t *testing.T) {
	env := newTestEnv(t, false)
	res := env.join(t, "Sharik", "town")

	for _, body := range []string{
		`{"move": "X"}`,
		`{}`,
		`not json`,
	} {
		rr := env.do(t, http.MethodPost, "/api/v1/game/player/action", body, bearer(res.AuthToken))
		if rr.Code != http.StatusBadRequest || decodeError(t, rr).Code != api.CodeInvalidArgument {
			t.Errorf("action %q: status %d, body %s", body, rr.Code, rr.Body.String())
		}
	}
}

func TestTickValidation(t *testing.T) {
	env := newTestEnv(t, false)

	for _, body := range []string{
		`{"timeDelta": -5}`,
		`{"timeDelta": "fast"}`,
		`{}`,
	} {
		rr := env.do(t, http.MethodPost, "/api/v1/game/tick", body, nil)
		if rr.Code != http.StatusBadRequest || decodeError(t, rr).Code != api.CodeInvalidArgument {
			t.Errorf("tick %q: status %d, body %s", body, rr.Code, rr.Body.String())
		}
	}
}

func TestTickClosedInAutoTickMode(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.do(t, http.MethodPost, "/api/v1/game/tick", `{"timeDelta": 1000}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("tick in auto mode: status %d", rr.Code)
	}
	if e := decodeError(t, rr); e.Code != api.CodeBadRequest || e.Message != "Invalid endpoint" {
		t.Errorf("tick in auto mode: %+v", e)
	}
}

func TestRecordsEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	for _, rec := range []storage.Record{
		{Name: "a", Score: 10, PlayTime: 1.0},
		{Name: "b", Score: 10, PlayTime: 2.0},
		{Name: "c", Score: 20, PlayTime: 5.0},
	} {
		if err := env.store.AppendRecord(ctx, rec.Name, rec.Score, rec.PlayTime); err != nil {
			t.Fatalf("AppendRecord: %v", err)
		}
	}

	load := func(query string) []api.RecordItem {
		t.Helper()
		rr := env.do(t, http.MethodGet, "/api/v1/game/records"+query, "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("records%s: status %d, body %s", query, rr.Code, rr.Body.String())
		}
		var items []api.RecordItem
		if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
			t.Fatalf("records body: %v", err)
		}
		return items
	}

	page := load("?start=0&maxItems=2")
	if len(page) != 2 || page[0].Name != "c" || page[1].Name != "a" {
		t.Errorf("first page = %+v, want [c a]", page)
	}

	page = load("?start=2&maxItems=2")
	if len(page) != 1 || page[0].Name != "b" {
		t.Errorf("second page = %+v, want [b]", page)
	}

	if all := load(""); len(all) != 3 {
		t.Errorf("default page = %+v, want all three", all)
	}

	rr := env.do(t, http.MethodGet, "/api/v1/game/records?maxItems=101", "", nil)
	if rr.Code != http.StatusBadRequest || decodeError(t, rr).Code != api.CodeInvalidArgument {
		t.Errorf("maxItems=101: status %d, body %s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/v1/game/records?start=-1", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("start=-1: status %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/v1/game/records?maxItems=ten", "", nil)
	if rr.Code != http.StatusBadRequest || decodeError(t, rr).Code != api.CodeInvalidArgument {
		t.Errorf("maxItems=ten: status %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestHeadReturnsHeadersOnly(t *testing.T) {
	env := newTestEnv(t, false)

	get := env.do(t, http.MethodGet, "/api/v1/maps", "", nil)
	head := env.do(t, http.MethodHead, "/api/v1/maps", "", nil)

	if head.Code != http.StatusOK {
		t.Fatalf("HEAD maps: status %d", head.Code)
	}
	if head.Body.Len() != 0 {
		t.Errorf("HEAD body = %q, want empty", head.Body.String())
	}
	wantLen := strconv.Itoa(get.Body.Len())
	if cl := head.Header().Get("Content-Length"); cl != wantLen {
		t.Errorf("HEAD Content-Length = %q, want %q", cl, wantLen)
	}
}

func TestUnknownAPIPath(t *testing.T) {
	env := newTestEnv(t, false)

	rr := env.do(t, http.MethodGet, "/api/v1/unicorns", "", nil)
	if rr.Code != http.StatusBadRequest || decodeError(t, rr).Code != api.CodeBadRequest {
		t.Errorf("unknown api path: status %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestDebugEndpoints(t *testing.T) {
	env := newTestEnv(t, false)
	env.join(t, "Sharik", "town")

	rr := env.do(t, http.MethodGet, "/api/v1/debug/version", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("debug/version: status %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/v1/debug/stats", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("debug/stats: status %d", rr.Code)
	}
	var stats struct {
		Sessions []struct {
			MapID string `json:"mapId"`
			Dogs  int    `json:"dogs"`
		} `json:"sessions"`
		Subscribers int `json:"subscribers"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("stats body: %v", err)
	}
	if len(stats.Sessions) != 1 || stats.Sessions[0].MapID != "town" || stats.Sessions[0].Dogs != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t, false)

	rr := env.do(t, http.MethodGet, "/api/v1/maps", "", nil)
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("X-Request-Id header is missing")
	}
}
