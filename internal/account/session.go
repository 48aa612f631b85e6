package account

import (
	"context"
	"fmt"
	"time"

	"mtsync/internal/models"
	"mtsync/internal/terminal"
	"mtsync/pkg/retry"
	"mtsync/pkg/utils"
)

// SessionConfig - параметры подключения к терминалу.
type SessionConfig struct {
	// ConnectTimeout передаётся терминалу при инициализации
	ConnectTimeout time.Duration

	// SettleDelay - фиксированная пауза после успешной инициализации,
	// терминалу нужно время на прогрев данных счёта
	SettleDelay time.Duration

	// Retry - конфигурация повторов инициализации
	Retry retry.Config
}

// Session - жизненный цикл подключения одного терминала к одному
// торговому счёту: IDLE → INITIALIZING → READY → CLOSED.
//
// Сессия однопользовательская, методы не предназначены для
// конкурентного вызова. Close идемпотентен и выполняет shutdown
// терминала ровно один раз.
type Session struct {
	client terminal.Client
	cfg    SessionConfig
	log    *utils.Logger

	state        string
	shutdownDone bool
}

// NewSession создаёт сессию в состоянии IDLE.
func NewSession(client terminal.Client, cfg SessionConfig, log *utils.Logger) *Session {
	return &Session{
		client: client,
		cfg:    cfg,
		log:    log.WithComponent("session"),
		state:  models.SessionIdle,
	}
}

// State возвращает текущее состояние сессии.
func (s *Session) State() string {
	return s.state
}

// transition переводит сессию в новое состояние, отклоняя
// недопустимые переходы.
func (s *Session) transition(to string) error {
	if !CanTransition(s.state, to) {
		return fmt.Errorf("invalid session transition %s -> %s", s.state, to)
	}
	s.log.Debug("session state change",
		utils.String("from", s.state),
		utils.State(to),
	)
	s.state = to
	return nil
}

// Connect инициализирует терминал с учётными данными счёта.
//
// Инициализация повторяется до исчерпания лимита попыток. После
// исчерпания причина классифицируется по last_error терминала:
// отказ авторизации отображается в ErrAuthenticationFailed, всё
// остальное в ErrConnectionFailed. После успеха выдерживается
// SettleDelay и сессия переходит в READY.
func (s *Session) Connect(ctx context.Context, path string, login int64, password, server string) error {
	if err := s.transition(models.SessionInitializing); err != nil {
		return err
	}

	req := terminal.InitRequest{
		Path:     path,
		Login:    login,
		Password: password,
		Server:   server,
		Timeout:  s.cfg.ConnectTimeout,
		Portable: true,
	}

	cfg := s.cfg.Retry
	cfg.OnAttempt = func(attempt int) {
		RetryAttempts.WithLabelValues("initialize").Inc()
		s.log.Info("initialize attempt", utils.Attempt(attempt), utils.Login(login))
	}

	_, err := retry.Fetch(ctx,
		func(ctx context.Context) (bool, error) {
			return s.client.Initialize(ctx, req)
		},
		retry.False,
		cfg,
	)
	if err != nil {
		return s.classifyConnectFailure(ctx, err)
	}

	if s.cfg.SettleDelay > 0 {
		select {
		case <-time.After(s.cfg.SettleDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.log.Info("terminal connected", utils.Login(login), utils.Server(server))
	return s.transition(models.SessionReady)
}

// classifyConnectFailure отображает исчерпанные попытки инициализации
// в сентинельную ошибку по last_error терминала.
func (s *Session) classifyConnectFailure(ctx context.Context, cause error) error {
	if !retry.IsEmpty(cause) {
		// Жёсткая ошибка транспорта, не исчерпание попыток
		return fmt.Errorf("%w: %v", ErrConnectionFailed, cause)
	}

	lastErr := s.client.LastError(ctx)

	s.log.Warn("terminal initialize failed",
		utils.ErrorCode(lastErr.Code),
		utils.String("terminal_error", lastErr.Message),
	)

	if lastErr.IsAuthorizationFailure() {
		return ErrAuthenticationFailed
	}
	return ErrConnectionFailed
}

// Close завершает сессию.
//
// Идемпотентен: shutdown терминала выполняется ровно один раз,
// повторные вызовы ничего не делают. Вызывается на каждом пути
// выхода, включая неудачную инициализацию.
func (s *Session) Close(ctx context.Context) {
	if s.state == models.SessionClosed {
		return
	}
	if s.state == models.SessionIdle {
		// Терминал не инициализировался, shutdown не нужен
		s.state = models.SessionClosed
		return
	}

	if !s.shutdownDone {
		s.shutdownDone = true
		if err := s.client.Shutdown(ctx); err != nil {
			s.log.Warn("terminal shutdown failed", utils.Err(err))
		}
	}

	if err := s.transition(models.SessionClosed); err != nil {
		// Переход в CLOSED допустим из любого нетерминального состояния
		s.log.Warn("session close transition rejected", utils.Err(err))
		s.state = models.SessionClosed
	}
}
