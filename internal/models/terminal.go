package models

import "fmt"

// Terminal представляет один слот терминала из общего пула.
//
// Слоты создаются внешним provisioning-скриптом (копии установки терминала
// в C:\MQ45\Terminals\T1..T32) и регистрируются в таблице terminals.
// Данный сервис слоты не создает и не удаляет - только переключает in_use
// при аренде и возврате.
type Terminal struct {
	ID    string `json:"id" db:"id"`
	Path  string `json:"path" db:"path"`
	InUse bool   `json:"in_use" db:"in_use"`
}

// SynthesizedTerminal строит детерминированную аренду для явно указанного
// номера терминала. Общий пул при этом не затрагивается: вызывающая сторона
// сама отвечает за эксклюзивность такого слота (локальный/single-tenant режим).
func SynthesizedTerminal(number int, basePath string) *Terminal {
	id := fmt.Sprintf("T%d", number)
	return &Terminal{
		ID:   id,
		Path: fmt.Sprintf(`%s\%s\terminal64.exe`, basePath, id),
	}
}

// Состояния сессии терминала (state machine)
const (
	SessionIdle         = "IDLE"         // сессия создана, initialize не вызывался
	SessionInitializing = "INITIALIZING" // идут попытки initialize
	SessionReady        = "READY"        // терминал авторизован, можно читать данные
	SessionClosed       = "CLOSED"       // shutdown выполнен (успех или отказ)
)
