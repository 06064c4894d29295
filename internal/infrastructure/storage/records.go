package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime"

	_ "github.com/mattn/go-sqlite3"
)

// MaxRecordPageSize - верхняя граница размера страницы рекордов.
const MaxRecordPageSize = 100

// ErrInvalidArgument возвращается при недопустимых параметрах страницы.
var ErrInvalidArgument = errors.New("invalid records page arguments")

// Record - строка таблицы рекордов.
type Record struct {
	Name     string
	Score    int
	PlayTime float64 // секунды
}

// RecordStore хранит рекорды ушедших на покой псов в SQLite.
// Пул соединений ограничен числом CPU: больше параллельных запросов
// базе все равно не переварить, а лишние соединения съедают память.
type RecordStore struct {
	db *sql.DB
}

// NewRecordStore открывает базу по DSN из GAME_DB_URL
// (например file:records.db?cache=shared).
func NewRecordStore(dbURL string) (*RecordStore, error) {
	db, err := sql.Open("sqlite3", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open records db: %w", err)
	}

	conns := runtime.NumCPU()
	if conns < 1 {
		conns = 1
	}
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)

	return &RecordStore{db: db}, nil
}

// EnsureSchema создает таблицу рекордов и сортировочный индекс.
// Идемпотентно: безопасно вызывать при каждом старте.
func (s *RecordStore) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS retired_players (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    name      TEXT NOT NULL,
    score     INTEGER NOT NULL,
    play_time DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_retired_players_leaderboard
    ON retired_players (score DESC, play_time ASC, name ASC);`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure records schema: %w", err)
	}
	return nil
}

// AppendRecord добавляет рекорд ушедшего на покой пса.
func (s *RecordStore) AppendRecord(ctx context.Context, name string, score int, playTime float64) error {
	const q = `INSERT INTO retired_players (name, score, play_time) VALUES (?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, q, name, score, playTime); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// LoadRecords возвращает страницу таблицы рекордов, отсортированную по
// (score DESC, play_time ASC, name ASC). Страница больше
// MaxRecordPageSize не выдается: клиент обязан листать.
func (s *RecordStore) LoadRecords(ctx context.Context, start, maxItems int) ([]Record, error) {
	if start < 0 || maxItems <= 0 || maxItems > MaxRecordPageSize {
		return nil, ErrInvalidArgument
	}

	const q = `
SELECT name, score, play_time
  FROM retired_players
 ORDER BY score DESC, play_time ASC, name ASC
 LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, q, maxItems, start)
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, maxItems)
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Name, &r.Score, &r.PlayTime); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// Close закрывает пул соединений.
func (s *RecordStore) Close() error {
	return s.db.Close()
}
