package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"dogwalk-server/internal/core/types"
	"dogwalk-server/internal/engine"
	"dogwalk-server/pkg/api"
	"dogwalk-server/pkg/logger"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS поднимает live-стрим: GET /ws?authToken=<32-hex>.
// Стрим строго read-only: сервер пушит снимки карты после каждого
// тика, входящие сообщения клиента игнорируются.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	token, err := types.ParseToken(r.URL.Query().Get("authToken"))
	if err == nil && !s.game.HasPlayer(token) {
		err = engine.ErrUnknownToken
	}
	if err != nil {
		// Пампы еще не запущены, можно писать в сокет напрямую.
		closeMsg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "auth failed")
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = conn.WriteMessage(websocket.CloseMessage, closeMsg)
		conn.Close()
		return
	}

	client := newClient(s.game, conn, token)
	go client.writePump()
	go client.readPump()

	// Свежий снимок сразу после подписки, чтобы клиент не ждал тика.
	if err := s.game.PushState(token); err != nil {
		logger.Log.WithError(err).WithField("token", token.Masked()).
			Debug("initial state push failed")
	}
}

// Client - посредник между вебсокетом и рассылкой игровых событий.
type Client struct {
	game  *engine.Game
	conn  *websocket.Conn
	token types.Token
	inbox chan api.StreamEvent
}

func newClient(game *engine.Game, conn *websocket.Conn, token types.Token) *Client {
	return &Client{
		game:  game,
		conn:  conn,
		token: token,
		inbox: game.Hub().Register(token),
	}
}

// readPump следит за жизнью соединения: pong-и и закрытие.
// Содержимое входящих сообщений стрим не интересует.
func (c *Client) readPump() {
	defer func() {
		// inbox защищает от гонки с переподпиской тем же токеном:
		// чужой канал Unregister не тронет.
		c.game.Hub().Unregister(c.token, c.inbox)
		if err := c.conn.Close(); err != nil {
			logger.Log.WithError(err).Debug("failed to close websocket connection")
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Log.WithError(err).Warn("failed to set read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Log.WithError(err).Debug("websocket read failed")
			}
			return
		}
	}
}

// writePump пересылает события из inbox в сокет + Ping.
// Закрытие inbox (ретайр или переподписка) завершает соединение.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			logger.Log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	for {
		select {
		case ev, ok := <-c.inbox:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set write deadline")
			}
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logger.Log.WithError(err).Debug("write close message failed")
				}
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				logger.Log.WithError(err).Debug("write json message failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Log.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}
