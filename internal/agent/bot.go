package agent

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"dogwalk-server/internal/engine"
	"dogwalk-server/pkg/logger"
	"dogwalk-server/pkg/utils"
)

// Bot - "игрок-компьютер" (headless agent). Этот код является примером
// ВНЕШНЕГО клиента: бот входит в игру через то же ядро, что и живой
// игрок, подписывается на тот же стрим событий и рулит псом теми же
// командами. Никакого привилегированного доступа к состоянию у него нет.
//
// Жизненный цикл:
//  1. Run -> вход на случайную карту, подписка в хабе.
//  2. Каждый interval бот отправляет случайную команду руления.
//  3. Завершение - по отмене контекста либо когда пес бота ушел на
//     покой (хаб закрывает личный канал).
type Bot struct {
	game     *engine.Game
	name     string
	interval time.Duration
	rng      *rand.Rand
}

// Команды руления, из которых бот выбирает. Пустая строка - остановка.
var botMoves = []string{"L", "R", "U", "D", ""}

func New(game *engine.Game, name string, interval time.Duration) *Bot {
	return &Bot{
		game:     game,
		name:     name,
		interval: interval,
		rng:      rand.New(rand.NewSource(utils.CryptoSeed())),
	}
}

// Run гоняет бота до отмены контекста. Блокирует горутину.
func (b *Bot) Run(ctx context.Context) error {
	maps := b.game.Maps()
	if len(maps) == 0 {
		return errors.New("no maps to walk on")
	}
	m := maps[b.rng.Intn(len(maps))]

	res, err := b.game.Join(m.ID, b.name)
	if err != nil {
		return err
	}
	logger.Log.WithFields(logrus.Fields{
		"bot":       b.name,
		"map":       m.ID,
		"player_id": res.PlayerID,
	}).Info("bot joined the game")

	inbox := b.game.Hub().Register(res.Token)
	defer b.game.Hub().Unregister(res.Token, inbox)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.WithField("bot", b.name).Info("bot stopped")
			return nil

		case _, ok := <-inbox:
			if !ok {
				// Канал закрыт - пес бота ушел на покой.
				logger.Log.WithField("bot", b.name).Info("bot retired")
				return nil
			}
			// Снимки мира боту-рандомайзеру не нужны, но канал надо
			// вычитывать, чтобы не числиться медленным подписчиком.

		case <-ticker.C:
			move := botMoves[b.rng.Intn(len(botMoves))]
			if err := b.game.Action(res.Token, move); err != nil {
				if errors.Is(err, engine.ErrUnknownToken) || errors.Is(err, engine.ErrStopped) {
					return nil
				}
				return err
			}
		}
	}
}
