package account

import "mtsync/internal/models"

// ValidTransitions определяет допустимые переходы жизненного цикла сессии
var ValidTransitions = map[string][]string{
	models.SessionIdle:         {models.SessionInitializing},
	models.SessionInitializing: {models.SessionReady, models.SessionClosed}, // Closed при неудачной инициализации
	models.SessionReady:        {models.SessionClosed},
	models.SessionClosed:       {}, // Терминальное состояние
}

// CanTransition проверяет допустимость перехода
func CanTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// StateInfo возвращает описание состояния для логов и диагностики
func StateInfo(s string) string {
	switch s {
	case models.SessionIdle:
		return "Сессия создана, терминал не инициализирован"
	case models.SessionInitializing:
		return "Инициализация терминала..."
	case models.SessionReady:
		return "Терминал подключен к торговому счёту"
	case models.SessionClosed:
		return "Сессия завершена"
	default:
		return "Неизвестное состояние"
	}
}

// IsTerminal возвращает true для терминального состояния
func IsTerminal(s string) bool {
	return s == models.SessionClosed
}
