package retry

import (
	"context"
	"errors"
	"time"
)

// ErrEmpty - sentinel результат: операция выполнилась штатно, но все
// RetryLimit попыток вернули пустой результат. Это НЕ ошибка backend'а:
// терминал сразу после старта сессии какое-то время отдает пустые ответы,
// и вызывающий код трактует ErrEmpty как пустую коллекцию, а не как fault.
var ErrEmpty = errors.New("empty result after all retry attempts")

// Config конфигурация retry-обертки для нестабильных чтений
//
// В отличие от классического экспоненциального backoff, здесь ограниченный
// числом попыток цикл с фиксированной задержкой: backend либо "прогреется"
// за пару попыток, либо реально пуст - ждать дольше бессмысленно.
type Config struct {
	// RetryLimit - количество попыток (включая первую)
	// По умолчанию: 3
	RetryLimit int

	// Delay - фиксированная пауза между попытками
	// По умолчанию: 0 (немедленный повтор)
	Delay time.Duration

	// OnAttempt - callback после каждой пустой попытки
	// Используется для логирования номера попытки
	OnAttempt func(attempt int)
}

// DefaultConfig возвращает конфигурацию по умолчанию:
// 3 попытки без задержки
func DefaultConfig() Config {
	return Config{RetryLimit: 3}
}

// validate проверяет и устанавливает значения по умолчанию
func (c *Config) validate() {
	if c.RetryLimit <= 0 {
		c.RetryLimit = 3
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
}

// Fetch выполняет чтение с повторными попытками при пустом результате
//
// Параметры:
//   - ctx: контекст для отмены (пауза между попытками кооперативная)
//   - op: операция чтения
//   - isEmpty: предикат "результат пуст, попытка не засчитана"
//   - cfg: конфигурация retry
//
// Возвращает:
//   - (result, nil): непустой результат
//   - (zero, err): ошибка операции (прекращает попытки немедленно)
//   - (zero, ErrEmpty): все попытки вернули пустой результат
//
// Пример:
//
//	deals, err := retry.Fetch(ctx, func(ctx context.Context) ([]models.Deal, error) {
//	    return client.HistoryDeals(ctx, from, to)
//	}, retry.EmptySlice[models.Deal], retry.DefaultConfig())
func Fetch[T any](ctx context.Context, op func(context.Context) (T, error), isEmpty func(T) bool, cfg Config) (T, error) {
	cfg.validate()

	var zero T

	for attempt := 1; attempt <= cfg.RetryLimit; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := op(ctx)
		if err != nil {
			return zero, err
		}
		if !isEmpty(result) {
			return result, nil
		}

		if cfg.OnAttempt != nil {
			cfg.OnAttempt(attempt)
		}

		// Последняя попытка - не ждем
		if attempt == cfg.RetryLimit {
			break
		}

		if cfg.Delay > 0 {
			select {
			case <-time.After(cfg.Delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, ErrEmpty
}

// EmptySlice - предикат пустоты для чтений, возвращающих срезы
func EmptySlice[E any](s []E) bool {
	return len(s) == 0
}

// NilPointer - предикат пустоты для чтений, возвращающих указатель
func NilPointer[T any](p *T) bool {
	return p == nil
}

// False - предикат пустоты для чтений, возвращающих флаг успеха
// (initialize терминала отдает bool)
func False(ok bool) bool {
	return !ok
}

// IsEmpty сообщает, является ли ошибка sentinel'ом пустого результата
func IsEmpty(err error) bool {
	return errors.Is(err, ErrEmpty)
}
