package utils

// logger.go - структурированное логирование на базе zap
//
// Назначение:
// Единая точка инициализации логгера для всех компонентов сервиса.
//
// Функции:
// - InitLogger: создать и настроить logger (формат json/text, уровни)
// - InitGlobalLogger / GetGlobalLogger / L: глобальный логгер процесса
// - Конструкторы доменных полей: Terminal, Login, Symbol, Attempt и т.д.

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ============================================================
// Конфигурация
// ============================================================

// LogConfig описывает настройки логгера.
type LogConfig struct {
	// Level - минимальный уровень: debug, info, warn, error, fatal
	Level string

	// Format - формат вывода: "json" или "text"
	Format string

	// Output - путь к файлу лога; пусто = stderr
	Output string

	// Development - режим разработки (цветные уровни, stacktrace на warn)
	Development bool
}

// Logger оборачивает zap.Logger и добавляет доменные помощники.
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// ============================================================
// Инициализация
// ============================================================

// InitLogger создаёт логгер по конфигурации.
//
// При некорректном Output происходит fallback на stderr, паники нет.
func InitLogger(cfg LogConfig) *Logger {
	level := parseLevel(cfg.Level)

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if cfg.Development {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "json" {
		encCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	sink := zapcore.AddSync(os.Stderr)
	if cfg.Output != "" {
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			sink = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(encoder, sink, level)

	opts := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	zl := zap.New(core, opts...)
	return &Logger{
		Logger: zl,
		sugar:  zl.Sugar(),
	}
}

// parseLevel преобразует строку в уровень zap.
// Неизвестные значения трактуются как info.
func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// ============================================================
// Глобальный логгер
// ============================================================

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// InitGlobalLogger инициализирует глобальный логгер процесса.
func InitGlobalLogger(cfg LogConfig) *Logger {
	logger := InitLogger(cfg)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger устанавливает глобальный логгер.
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger возвращает глобальный логгер,
// создавая логгер по умолчанию при первом обращении.
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// L - короткий псевдоним GetGlobalLogger.
func L() *Logger {
	return GetGlobalLogger()
}

// ============================================================
// Методы Logger
// ============================================================

// With возвращает дочерний логгер с дополнительными полями.
func (l *Logger) With(fields ...zap.Field) *Logger {
	zl := l.Logger.With(fields...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

// Sugar возвращает SugaredLogger для printf-стиля.
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// WithComponent добавляет имя компонента (pool, session, aggregator...).
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(Component(name))
}

// WithTerminal добавляет идентификатор терминала.
func (l *Logger) WithTerminal(id string) *Logger {
	return l.With(Terminal(id))
}

// WithLogin добавляет логин торгового счёта.
func (l *Logger) WithLogin(login int64) *Logger {
	return l.With(Login(login))
}

// WithSymbol добавляет торговый символ.
func (l *Logger) WithSymbol(symbol string) *Logger {
	return l.With(Symbol(symbol))
}

// ============================================================
// Глобальные функции логирования
// ============================================================

func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { L().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { L().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { L().Fatal(msg, fields...) }

func Debugf(template string, args ...interface{}) { L().sugar.Debugf(template, args...) }
func Infof(template string, args ...interface{})  { L().sugar.Infof(template, args...) }
func Warnf(template string, args ...interface{})  { L().sugar.Warnf(template, args...) }
func Errorf(template string, args ...interface{}) { L().sugar.Errorf(template, args...) }

// ============================================================
// Конструкторы доменных полей
// ============================================================

func Component(name string) zap.Field   { return zap.String("component", name) }
func Terminal(id string) zap.Field      { return zap.String("terminal", id) }
func Login(login int64) zap.Field       { return zap.Int64("login", login) }
func Server(server string) zap.Field    { return zap.String("server", server) }
func Symbol(symbol string) zap.Field    { return zap.String("symbol", symbol) }
func Attempt(n int) zap.Field           { return zap.Int("attempt", n) }
func Ticket(t int64) zap.Field          { return zap.Int64("ticket", t) }
func PositionID(id int64) zap.Field     { return zap.Int64("position_id", id) }
func Profit(p float64) zap.Field        { return zap.Float64("profit", p) }
func Pips(p float64) zap.Field          { return zap.Float64("pips", p) }
func Volume(v float64) zap.Field        { return zap.Float64("volume", v) }
func Deals(n int) zap.Field             { return zap.Int("deals", n) }
func State(s string) zap.Field          { return zap.String("state", s) }
func Latency(ms float64) zap.Field      { return zap.Float64("latency_ms", ms) }
func RequestID(id string) zap.Field     { return zap.String("request_id", id) }
func ErrorCode(code int) zap.Field      { return zap.Int("error_code", code) }

// Переэкспорт стандартных конструкторов zap, чтобы большинству
// пакетов хватало одного импорта utils.
func String(key, value string) zap.Field          { return zap.String(key, value) }
func Int(key string, value int) zap.Field         { return zap.Int(key, value) }
func Int64(key string, value int64) zap.Field     { return zap.Int64(key, value) }
func Float64(key string, value float64) zap.Field { return zap.Float64(key, value) }
func Bool(key string, value bool) zap.Field       { return zap.Bool(key, value) }
func Err(err error) zap.Field                     { return zap.Error(err) }
func Any(key string, value interface{}) zap.Field { return zap.Any(key, value) }
