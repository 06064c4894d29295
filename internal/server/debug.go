package server

import (
	"net/http"

	"dogwalk-server/internal/engine"
	"dogwalk-server/internal/version"
)

// Отладочные ручки. Игровое состояние они не меняют и в протокол
// клиента не входят, но заголовки отдают те же, что и остальное /api/.

// GET /api/v1/debug/version - сборочные метаданные сервера.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	writeJSON(w, r, http.StatusOK, version.Info())
}

// GET /api/v1/debug/stats - счетчики по живым сессиям.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	type statsView struct {
		Sessions    []engine.SessionStats `json:"sessions"`
		Subscribers int                   `json:"subscribers"`
	}

	stats := s.game.Stats()
	if stats == nil {
		// Пустой список сериализуется как [], а не null.
		stats = []engine.SessionStats{}
	}
	writeJSON(w, r, http.StatusOK, statsView{
		Sessions:    stats,
		Subscribers: s.game.Hub().SubscriberCount(),
	})
}
