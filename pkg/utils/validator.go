package utils

import (
	"fmt"
	"strings"
)

// validator.go - валидация входных данных запроса синхронизации
//
// Проверки выполняются до захвата терминала, чтобы не тратить
// ресурс пула на заведомо некорректные запросы.

// ValidateLogin проверяет логин торгового счёта.
func ValidateLogin(login int64) error {
	if login <= 0 {
		return fmt.Errorf("login must be positive, got %d", login)
	}
	return nil
}

// ValidatePassword проверяет пароль торгового счёта.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password must not be empty")
	}
	return nil
}

// ValidateServer проверяет имя торгового сервера (например "Broker-Demo").
func ValidateServer(server string) error {
	server = strings.TrimSpace(server)
	if server == "" {
		return fmt.Errorf("server must not be empty")
	}
	if len(server) > 64 {
		return fmt.Errorf("server name too long: %d characters", len(server))
	}
	for _, r := range server {
		if r <= ' ' || r == 0x7f {
			return fmt.Errorf("server name contains control characters")
		}
	}
	return nil
}

// ValidateTerminalNumber проверяет явно запрошенный номер терминала.
// Ноль означает "выбрать автоматически" и считается корректным.
func ValidateTerminalNumber(n int) error {
	if n < 0 {
		return fmt.Errorf("terminal number must not be negative, got %d", n)
	}
	return nil
}
