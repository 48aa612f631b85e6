package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mtsync/internal/models"
)

// Ошибки репозитория терминалов
var (
	ErrNoFreeTerminals  = errors.New("no free terminals")
	ErrTerminalNotFound = errors.New("terminal not found")
)

// TerminalRepository - работа с таблицей terminals
//
// Таблица создается provisioning-скриптом вместе с копиями установки
// терминала; этот репозиторий строки не добавляет и не удаляет, только
// атомарно переключает in_use.
//
// Атомарность аренды целиком делегирована Postgres: запросы на аренду
// приходят из независимых процессов, поэтому клиентские блокировки
// бесполезны. Вся конкуренция разрешается одним compare-and-set запросом.
type TerminalRepository struct {
	db *sql.DB
}

// NewTerminalRepository создает новый экземпляр репозитория
func NewTerminalRepository(db *sql.DB) *TerminalRepository {
	return &TerminalRepository{db: db}
}

// AllocateFree атомарно арендует один свободный терминал.
//
// Один UPDATE с подзапросом под FOR UPDATE SKIP LOCKED: из двух конкурентных
// вызовов при единственной свободной строке ровно один получит терминал,
// второй - ErrNoFreeTerminals. Очереди и backoff на этом уровне нет.
func (r *TerminalRepository) AllocateFree(ctx context.Context) (*models.Terminal, error) {
	query := `
		UPDATE terminals
		SET in_use = TRUE
		WHERE id = (
			SELECT id FROM terminals
			WHERE in_use = FALSE
			ORDER BY id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, path, in_use`

	terminal := &models.Terminal{}
	err := r.db.QueryRowContext(ctx, query).Scan(&terminal.ID, &terminal.Path, &terminal.InUse)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoFreeTerminals
		}
		return nil, fmt.Errorf("allocate free terminal: %w", err)
	}

	return terminal, nil
}

// Release возвращает терминал в пул.
//
// Успех - ровно одна затронутая строка. Повторный Release того же id
// затрагивает ноль строк (условие AND in_use) и возвращает false без ошибки.
func (r *TerminalRepository) Release(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE terminals
		SET in_use = FALSE
		WHERE id = $1 AND in_use = TRUE`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("release terminal %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("release terminal %s: %w", id, err)
	}

	return affected == 1, nil
}

// GetByID возвращает терминал по идентификатору
func (r *TerminalRepository) GetByID(ctx context.Context, id string) (*models.Terminal, error) {
	query := `SELECT id, path, in_use FROM terminals WHERE id = $1`

	terminal := &models.Terminal{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&terminal.ID, &terminal.Path, &terminal.InUse)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTerminalNotFound
		}
		return nil, fmt.Errorf("get terminal %s: %w", id, err)
	}

	return terminal, nil
}

// GetAll возвращает все зарегистрированные терминалы
func (r *TerminalRepository) GetAll(ctx context.Context) ([]*models.Terminal, error) {
	query := `SELECT id, path, in_use FROM terminals ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all terminals: %w", err)
	}
	defer rows.Close()

	var terminals []*models.Terminal
	for rows.Next() {
		terminal := &models.Terminal{}
		if err := rows.Scan(&terminal.ID, &terminal.Path, &terminal.InUse); err != nil {
			return nil, fmt.Errorf("scan terminal row: %w", err)
		}
		terminals = append(terminals, terminal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terminal rows: %w", err)
	}

	return terminals, nil
}

// CountFree возвращает количество свободных терминалов (для health/metrics)
func (r *TerminalRepository) CountFree(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM terminals WHERE in_use = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count free terminals: %w", err)
	}
	return count, nil
}
