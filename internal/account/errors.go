package account

import "errors"

// Сентинельные ошибки уровня синхронизации счёта.
// Сервис сопоставляет их с сообщениями конверта ответа.
var (
	// ErrAuthenticationFailed - терминал отверг учётные данные счёта.
	ErrAuthenticationFailed = errors.New("trading account authentication failed")

	// ErrConnectionFailed - терминал не инициализировался по иной причине
	// (сервер недоступен, таймаут, повреждённая установка).
	ErrConnectionFailed = errors.New("terminal connection failed")

	// ErrAccountUnavailable - данные счёта остались пустыми после всех
	// повторных попыток чтения.
	ErrAccountUnavailable = errors.New("account data unavailable")
)
