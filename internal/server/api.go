package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"dogwalk-server/internal/core/types"
	"dogwalk-server/internal/engine"
	"dogwalk-server/internal/infrastructure/storage"
	"dogwalk-server/pkg/api"
	"dogwalk-server/pkg/logger"
)

// RecordSource отдает страницы таблицы рекордов.
// Реализуется хранилищем из internal/infrastructure/storage.
type RecordSource interface {
	LoadRecords(ctx context.Context, start, maxItems int) ([]storage.Record, error)
}

// handleAPI маршрутизирует все /api/-пути. Роутинг ручной, одним
// switch'ем: так проверка метода и заголовок Allow живут рядом с
// обработчиком, а неизвестный путь гарантированно дает badRequest,
// а не пустой 404.
func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/api/v1/maps":
		s.handleMapList(w, r)
	case strings.HasPrefix(path, "/api/v1/maps/"):
		s.handleMapDetail(w, r)
	case path == "/api/v1/game/join":
		s.handleJoin(w, r)
	case path == "/api/v1/game/players":
		s.handlePlayers(w, r)
	case path == "/api/v1/game/state":
		s.handleState(w, r)
	case path == "/api/v1/game/player/action":
		s.handleAction(w, r)
	case path == "/api/v1/game/tick":
		s.handleTick(w, r)
	case path == "/api/v1/game/records":
		s.handleRecords(w, r)
	case path == "/api/v1/debug/version":
		s.handleVersion(w, r)
	case path == "/api/v1/debug/stats":
		s.handleStats(w, r)
	default:
		writeError(w, r, http.StatusBadRequest, api.CodeBadRequest, "Invalid API endpoint")
	}
}

// GET /api/v1/maps - список карт.
func (s *Server) handleMapList(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	writeJSON(w, r, http.StatusOK, engine.BuildMapList(s.game.Maps()))
}

// GET /api/v1/maps/{id} - геометрия карты.
func (s *Server) handleMapDetail(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/maps/")
	m := s.game.FindMap(id)
	if m == nil {
		writeError(w, r, http.StatusNotFound, api.CodeMapNotFound, "Map not found")
		return
	}
	writeJSON(w, r, http.StatusOK, engine.BuildMapDetail(m))
}

// POST /api/v1/game/join - вход в игру.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req api.JoinRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeInvalidArgument,
			"Join game request parse error: "+err.Error())
		return
	}

	res, err := s.game.Join(req.MapID, req.UserName)
	switch {
	case errors.Is(err, engine.ErrMapNotFound):
		writeError(w, r, http.StatusNotFound, api.CodeMapNotFound, "Map not found")
		return
	case err != nil:
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, api.JoinResponse{
		AuthToken: res.Token.String(),
		PlayerID:  res.PlayerID,
	})
}

// GET /api/v1/game/players - имена игроков на карте наблюдателя.
func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	token, ok := authorize(w, r)
	if !ok {
		return
	}

	players, err := s.game.PlayersOnMap(token)
	if !writeAuthResult(w, r, err) {
		return
	}
	writeJSON(w, r, http.StatusOK, players)
}

// GET /api/v1/game/state - снимок карты наблюдателя.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	token, ok := authorize(w, r)
	if !ok {
		return
	}

	state, err := s.game.State(token)
	if !writeAuthResult(w, r, err) {
		return
	}
	writeJSON(w, r, http.StatusOK, state)
}

// POST /api/v1/game/player/action - руление псом.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	token, ok := authorize(w, r)
	if !ok {
		return
	}

	var req api.ActionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeInvalidArgument,
			"Failed to parse action: "+err.Error())
		return
	}

	if !writeAuthResult(w, r, s.game.Action(token, *req.Move)) {
		return
	}
	writeJSON(w, r, http.StatusOK, struct{}{})
}

// POST /api/v1/game/tick - внешний сдвиг игровых часов.
// При включенном автотике ручка закрыта: время двигает только тикер.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if s.autoTick {
		writeError(w, r, http.StatusBadRequest, api.CodeBadRequest, "Invalid endpoint")
		return
	}
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req api.TickRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeInvalidArgument,
			"Failed to parse tick request JSON: "+err.Error())
		return
	}

	if err := s.game.AdvanceTime(*req.TimeDelta); err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, struct{}{})
}

// GET /api/v1/game/records?start=0&maxItems=100 - таблица рекордов.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	q := r.URL.Query()
	start, err := queryInt(q, "start", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeInvalidArgument, err.Error())
		return
	}
	maxItems, err := queryInt(q, "maxItems", storage.MaxRecordPageSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, api.CodeInvalidArgument, err.Error())
		return
	}

	records, err := s.records.LoadRecords(r.Context(), start, maxItems)
	switch {
	case errors.Is(err, storage.ErrInvalidArgument):
		writeError(w, r, http.StatusBadRequest, api.CodeInvalidArgument, "Invalid records page")
		return
	case err != nil:
		writeInternalError(w, r, err)
		return
	}

	// Пустая страница сериализуется как [], а не null.
	items := make([]api.RecordItem, 0, len(records))
	for _, rec := range records {
		items = append(items, api.RecordItem{
			Name:     rec.Name,
			Score:    rec.Score,
			PlayTime: rec.PlayTime,
		})
	}
	writeJSON(w, r, http.StatusOK, items)
}

// authorize достает токен из Authorization: Bearer <32-hex>.
// Любое отклонение от формата - invalidToken, не вдаваясь в детали.
func authorize(w http.ResponseWriter, r *http.Request) (types.Token, bool) {
	const prefix = "Bearer "

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		writeError(w, r, http.StatusUnauthorized, api.CodeInvalidToken,
			"Authorization header is missing")
		return "", false
	}
	token, err := types.ParseToken(header[len(prefix):])
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, api.CodeInvalidToken,
			"Authorization header is malformed")
		return "", false
	}
	return token, true
}

// writeAuthResult переводит ошибки ядра в ответ. Возвращает true,
// если ошибки не было и обработчик может писать успешный ответ.
func writeAuthResult(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, engine.ErrUnknownToken):
		writeError(w, r, http.StatusUnauthorized, api.CodeUnknownToken,
			"Player token has not been found")
	default:
		writeInternalError(w, r, err)
	}
	return false
}

// decodeBody разбирает JSON тела запроса и гоняет DTO через Validate.
func decodeBody(r *http.Request, dst api.Validator) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return dst.Validate()
}

// queryInt читает целочисленный query-параметр с дефолтом.
func queryInt(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parameter %q must be an integer", key)
	}
	return v, nil
}

// allowMethods проверяет метод запроса. При чужом методе пишет
// invalidMethod с заголовком Allow и возвращает false.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, api.CodeInvalidMethod, "Invalid method")
	return false
}

// writeJSON отдает JSON-ответ. Заголовки по протоколу: любой ответ
// /api/ некешируемый, Content-Length выставляется явно, на HEAD тело
// не пишется.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Log.WithError(err).Error("failed to marshal response")
		status = http.StatusInternalServerError
		body = []byte(`{"code":"internalError","message":"Failed to marshal response"}`)
	}

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-cache")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(body); err != nil {
		logger.Log.WithError(err).Debug("failed to write response body")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, r, status, api.ErrorResponse{Code: code, Message: message})
}

func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Log.WithError(err).Error("request failed")
	writeError(w, r, http.StatusInternalServerError, api.CodeInternalError, "Internal server error")
}
