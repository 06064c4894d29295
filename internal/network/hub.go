package network

import (
	"sync"

	"dogwalk-server/internal/core/types"
	"dogwalk-server/pkg/api"
)

// Broadcaster занимается только рассылкой игровых событий подписчикам.
// Подписка ключуется токеном игрока: один игрок - максимум одно живое
// соединение.
type Broadcaster struct {
	mu sync.RWMutex
	// Мапа: токен игрока -> личный канал
	subscribers map[types.Token]chan api.StreamEvent
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[types.Token]chan api.StreamEvent),
	}
}

// Register создает личный канал для игрока (человека или бота).
// Повторная подписка тем же токеном вытесняет старое соединение:
// его канал закрывается, и write pump завершает сокет.
func (b *Broadcaster) Register(token types.Token) chan api.StreamEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.subscribers[token]; ok {
		close(old)
	}

	ch := make(chan api.StreamEvent, 100)
	b.subscribers[token] = ch
	return ch
}

// Unregister удаляет подписчика. ch защищает от случая, когда между
// разрывом старого соединения и его Unregister успела пройти новая
// подписка тем же токеном: чужой канал не трогаем.
func (b *Broadcaster) Unregister(token types.Token, ch chan api.StreamEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cur, ok := b.subscribers[token]; ok && cur == ch {
		close(cur)
		delete(b.subscribers, token)
	}
}

// Drop снимает подписку игрока независимо от канала.
// Вызывается при ретайре: токен умирает вместе с подпиской.
func (b *Broadcaster) Drop(token types.Token) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[token]; ok {
		close(ch)
		delete(b.subscribers, token)
	}
}

// SendTo отправляет событие конкретному игроку. Медленного подписчика
// не ждем: при переполненном канале событие пропускается, клиент
// догонит мир следующим снапшотом.
func (b *Broadcaster) SendTo(token types.Token, ev api.StreamEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if ch, ok := b.subscribers[token]; ok {
		select {
		case ch <- ev:
		default:
		}
	}
}

// HasSubscriber проверяет, слушает ли игрок поток событий.
// Используется движком, чтобы не собирать снапшот впустую.
func (b *Broadcaster) HasSubscriber(token types.Token) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[token]
	return ok
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
