package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dogwalk-server/internal/engine"
	"dogwalk-server/pkg/logger"
)

// Options - настройки HTTP-сервера.
type Options struct {
	// Addr - адрес прослушивания, например "0.0.0.0:8080".
	Addr string

	// WWWRoot - корень статики фронтенда.
	WWWRoot string

	// AutoTick закрывает ручку /game/tick: время двигает только тикер.
	AutoTick bool
}

// Server - HTTP-фасад над игровым ядром: REST-команды, live-стрим
// по вебсокету и раздача статики фронтенда.
type Server struct {
	game     *engine.Game
	records  RecordSource
	autoTick bool

	srv *http.Server
}

func New(game *engine.Game, records RecordSource, opts Options) (*Server, error) {
	static, err := NewStaticHandler(opts.WWWRoot)
	if err != nil {
		return nil, err
	}

	s := &Server{
		game:     game,
		records:  records,
		autoTick: opts.AutoTick,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/", s.handleAPI)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/", static)

	s.srv = &http.Server{
		Addr:    opts.Addr,
		Handler: logRequests(mux),
		// Дедлайн на чтение запроса. Вебсокеты не страдают: после
		// апгрейда дедлайнами управляют пампы.
		ReadTimeout: 30 * time.Second,
	}
	return s, nil
}

// Handler возвращает корневой обработчик сервера (нужен тестам).
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run блокирует горутину до остановки сервера.
func (s *Server) Run() error {
	logger.Log.Infof("🐕 Dog walk server listening on %s", s.srv.Addr)

	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown мягко останавливает сервер: новые соединения не принимаются,
// начатые запросы дорабатывают до дедлайна контекста.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
