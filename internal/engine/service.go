package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dogwalk-server/internal/core/types"
	"dogwalk-server/internal/domain"
	"dogwalk-server/internal/network"
	"dogwalk-server/pkg/api"
	"dogwalk-server/pkg/logger"
)

var (
	// ErrMapNotFound: карты с таким id нет.
	ErrMapNotFound = errors.New("map not found")

	// ErrUnknownToken: игрок не входил либо уже ушел на покой.
	ErrUnknownToken = errors.New("unknown token")

	// ErrStopped: ядро остановлено и команд больше не принимает.
	ErrStopped = errors.New("game kernel stopped")
)

// RecordSink принимает рекорды ушедших на покой псов. Ошибки записи
// не должны ронять игровой цикл: ядро логирует их и продолжает.
type RecordSink interface {
	AppendRecord(ctx context.Context, name string, score int, playTime float64) error
}

// JoinResult - итог входа в игру.
type JoinResult struct {
	Token    types.Token
	PlayerID uint64
}

// SessionStats - срез сессии для отладочной ручки.
type SessionStats struct {
	MapID    string `json:"mapId"`
	Dogs     int    `json:"dogs"`
	Loot     int    `json:"loot"`
	GameTime int64  `json:"gameTime"`
}

// record - задание для писателя рекордов.
type record struct {
	name     string
	score    int
	playTime float64
}

// Game - игровое ядро. Все карты, сессии и учетные записи принадлежат
// одной горутине-владельцу: публичные методы пересылают ей замыкания
// через канал команд и ждут ответа. Так тик и HTTP-запросы никогда
// не видят полусдвинутый мир, а в доменном коде нет ни одного мьютекса.
type Game struct {
	cfg Config

	maps    []*domain.Map
	mapByID map[string]*domain.Map

	// Поля ниже трогает только горутина-владелец.
	sessions map[string]*Session
	sessList []*Session
	players  *Registry
	tuning   Tuning

	sink RecordSink
	hub  *network.Broadcaster

	commands chan func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	retireCh   chan record
	retireDone chan struct{}
}

// NewGame создает ядро поверх неизменяемого набора карт.
// Сессии карт создаются лениво при первом входе.
func NewGame(cfg Config, maps []*domain.Map, sink RecordSink) *Game {
	byID := make(map[string]*domain.Map, len(maps))
	for _, m := range maps {
		byID[m.ID] = m
	}

	return &Game{
		cfg:        cfg,
		maps:       maps,
		mapByID:    byID,
		sessions:   make(map[string]*Session),
		players:    NewRegistry(),
		tuning:     cfg.Tuning,
		sink:       sink,
		hub:        network.NewBroadcaster(),
		commands:   make(chan func(), 64),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		retireCh:   make(chan record, 256),
		retireDone: make(chan struct{}),
	}
}

// Hub возвращает рассылку игровых событий.
func (g *Game) Hub() *network.Broadcaster {
	return g.hub
}

// Start запускает горутину-владельца состояния и писателя рекордов.
func (g *Game) Start() {
	go g.run()
	go g.runRecordWriter()
	logger.Log.WithFields(logrus.Fields{
		"maps": len(g.maps),
		"seed": g.cfg.Seed,
	}).Info("🎲 Game kernel started")
}

// Stop останавливает ядро: дорабатывает очередь команд, потом ждет,
// пока писатель рекордов сохранит все, что успело произойти.
func (g *Game) Stop() {
	g.stopOnce.Do(func() {
		close(g.quit)
		<-g.done
		close(g.retireCh)
		<-g.retireDone
		logger.Log.Info("Game kernel stopped")
	})
}

// run - цикл горутины-владельца. После сигнала остановки очередь
// дорабатывается до конца: команда, успевшая встать в очередь,
// выполняется всегда.
func (g *Game) run() {
	for {
		select {
		case fn := <-g.commands:
			fn()
		case <-g.quit:
			for {
				select {
				case fn := <-g.commands:
					fn()
				default:
					close(g.done)
					return
				}
			}
		}
	}
}

// do выполняет fn на горутине-владельце и дожидается завершения.
func (g *Game) do(fn func()) error {
	ran := make(chan struct{})
	select {
	case g.commands <- func() { fn(); close(ran) }:
	case <-g.quit:
		return ErrStopped
	}

	select {
	case <-ran:
		return nil
	case <-g.done:
		// Очередь дорабатывается перед закрытием done, поэтому сюда
		// попадает только команда, не успевшая встать в очередь.
		select {
		case <-ran:
			return nil
		default:
			return ErrStopped
		}
	}
}

// runRecordWriter пишет рекорды вне игрового цикла, чтобы медленная
// база не останавливала тики. Ошибка записи теряет один рекорд, но
// не игру.
func (g *Game) runRecordWriter() {
	defer close(g.retireDone)
	for rec := range g.retireCh {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := g.sink.AppendRecord(ctx, rec.name, rec.score, rec.playTime)
		cancel()
		if err != nil {
			logger.Log.WithError(err).WithField("player", rec.name).
				Error("failed to persist retired player record")
		}
	}
}

// Maps возвращает все карты в порядке конфига.
// Карты неизменяемы, поэтому обращение не сериализуется.
func (g *Game) Maps() []*domain.Map {
	return g.maps
}

// FindMap возвращает карту по id либо nil.
func (g *Game) FindMap(id string) *domain.Map {
	return g.mapByID[id]
}

// Join регистрирует игрока на карте и ставит его пса на старт.
func (g *Game) Join(mapID, userName string) (JoinResult, error) {
	var res JoinResult
	var opErr error

	err := g.do(func() {
		m, ok := g.mapByID[mapID]
		if !ok {
			opErr = ErrMapNotFound
			return
		}
		sess := g.session(m)
		player := g.players.Add(mapID, userName)
		sess.AddDog(player.ID, userName)

		res = JoinResult{Token: player.Token, PlayerID: player.ID}

		g.notifyMap(sess, api.StreamEvent{
			Type:     api.StreamJoined,
			MapID:    mapID,
			Time:     sess.GameTime(),
			PlayerID: player.ID,
			Name:     player.Name,
		})
		logger.Log.WithFields(logrus.Fields{
			"player_id": player.ID,
			"map":       mapID,
			"token":     player.Token.Masked(),
		}).Info("player joined")
	})
	if err != nil {
		return JoinResult{}, err
	}
	return res, opErr
}

// PlayersOnMap возвращает игроков карты, на которой находится
// владелец токена.
func (g *Game) PlayersOnMap(token types.Token) (map[string]api.PlayerName, error) {
	var out map[string]api.PlayerName
	var opErr error

	err := g.do(func() {
		p := g.players.FindByToken(token)
		if p == nil {
			opErr = ErrUnknownToken
			return
		}
		out = BuildPlayerList(g.players.OnMap(p.MapID))
	})
	if err != nil {
		return nil, err
	}
	return out, opErr
}

// State возвращает снимок карты владельца токена.
func (g *Game) State(token types.Token) (api.StateResponse, error) {
	var out api.StateResponse
	var opErr error

	err := g.do(func() {
		p := g.players.FindByToken(token)
		if p == nil {
			opErr = ErrUnknownToken
			return
		}
		out = BuildState(g.sessions[p.MapID])
	})
	if err != nil {
		return api.StateResponse{}, err
	}
	return out, opErr
}

// PushState шлет владельцу токена свежий снимок его карты через стрим.
// Вызывается при подключении к /ws, чтобы клиент не ждал первого тика.
func (g *Game) PushState(token types.Token) error {
	var opErr error

	err := g.do(func() {
		p := g.players.FindByToken(token)
		if p == nil {
			opErr = ErrUnknownToken
			return
		}
		sess := g.sessions[p.MapID]
		state := BuildState(sess)
		g.hub.SendTo(token, api.StreamEvent{
			Type:  api.StreamState,
			MapID: sess.Map.ID,
			Time:  sess.GameTime(),
			State: &state,
		})
	})
	if err != nil {
		return err
	}
	return opErr
}

// Action применяет команду руления к псу владельца токена.
// move - "L", "R", "U", "D" либо пустая строка (остановка).
func (g *Game) Action(token types.Token, move string) error {
	var opErr error

	err := g.do(func() {
		p := g.players.FindByToken(token)
		if p == nil {
			opErr = ErrUnknownToken
			return
		}
		sess := g.sessions[p.MapID]
		if dog := sess.FindDog(p.ID); dog != nil {
			sess.SetVelocity(dog, move)
		}
	})
	if err != nil {
		return err
	}
	return opErr
}

// HasPlayer сообщает, жив ли игрок с таким токеном.
func (g *Game) HasPlayer(token types.Token) bool {
	known := false
	if err := g.do(func() {
		known = g.players.FindByToken(token) != nil
	}); err != nil {
		return false
	}
	return known
}

// AdvanceTime сдвигает игровые часы всех сессий на dtMillis.
// Единая точка входа для автотика и ручки /game/tick.
func (g *Game) AdvanceTime(dtMillis int64) error {
	return g.do(func() {
		for _, sess := range g.sessList {
			retired := sess.Tick(dtMillis, g.tuning.RetireAfter)
			for _, dog := range retired {
				g.retireDog(sess, dog)
			}
			g.publishState(sess)
		}
	})
}

// UpdateTuning применяет горячие параметры из перечитанного конфига
// ко всем живым сессиям.
func (g *Game) UpdateTuning(t Tuning) error {
	return g.do(func() {
		g.tuning = t
		for _, sess := range g.sessList {
			sess.ApplyTuning(t)
		}
		logger.Log.WithFields(logrus.Fields{
			"retire_after":     t.RetireAfter,
			"loot_interval":    t.LootInterval,
			"loot_probability": t.LootProbability,
		}).Info("game tuning updated")
	})
}

// Stats возвращает срез живых сессий для отладочной ручки.
func (g *Game) Stats() []SessionStats {
	var out []SessionStats
	if err := g.do(func() {
		out = make([]SessionStats, 0, len(g.sessList))
		for _, sess := range g.sessList {
			out = append(out, SessionStats{
				MapID:    sess.Map.ID,
				Dogs:     len(sess.Dogs),
				Loot:     len(sess.Loot),
				GameTime: sess.GameTime(),
			})
		}
	}); err != nil {
		return nil
	}
	return out
}

// session возвращает сессию карты, создавая её при первом обращении.
func (g *Game) session(m *domain.Map) *Session {
	if sess, ok := g.sessions[m.ID]; ok {
		return sess
	}
	sess := NewSession(m, sessionSeed(g.cfg.Seed, m.ID), g.tuning, g.cfg.RandomizeSpawnPoints)
	g.sessions[m.ID] = sess
	g.sessList = append(g.sessList, sess)
	logger.Log.WithField("map", m.ID).Info("game session created")
	return sess
}

// retireDog провожает пса на покой: рекорд уезжает писателю, учетная
// запись и подписка стрима умирают, карта узнает об уходе.
func (g *Game) retireDog(sess *Session, dog *domain.Dog) {
	playTime := float64(sess.GameTime()-dog.JoinedAt) / 1000.0

	// Переполненная очередь теряет рекорд, но не тормозит тик.
	select {
	case g.retireCh <- record{name: dog.Name, score: dog.Score, playTime: playTime}:
	default:
		logger.Log.WithField("player", dog.Name).
			Error("record queue is full, dropping retirement record")
	}

	p := g.players.FindByID(dog.ID)
	g.players.Drop(dog.ID)

	g.notifyMap(sess, api.StreamEvent{
		Type:     api.StreamRetired,
		MapID:    sess.Map.ID,
		Time:     sess.GameTime(),
		PlayerID: dog.ID,
		Name:     dog.Name,
	})
	if p != nil {
		g.hub.Drop(p.Token)
	}

	logger.Log.WithFields(logrus.Fields{
		"player_id": dog.ID,
		"map":       sess.Map.ID,
		"score":     dog.Score,
		"play_time": playTime,
	}).Info("player retired")
}

// publishState шлет подписчикам карты свежий снимок после тика.
// Снимок собирается один раз на карту.
func (g *Game) publishState(sess *Session) {
	var ev *api.StreamEvent
	for _, p := range g.players.OnMap(sess.Map.ID) {
		if !g.hub.HasSubscriber(p.Token) {
			continue
		}
		if ev == nil {
			state := BuildState(sess)
			ev = &api.StreamEvent{
				Type:  api.StreamState,
				MapID: sess.Map.ID,
				Time:  sess.GameTime(),
				State: &state,
			}
		}
		g.hub.SendTo(p.Token, *ev)
	}
}

// notifyMap рассылает событие всем подписанным игрокам карты.
func (g *Game) notifyMap(sess *Session, ev api.StreamEvent) {
	for _, p := range g.players.OnMap(sess.Map.ID) {
		g.hub.SendTo(p.Token, ev)
	}
}
