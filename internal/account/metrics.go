package account

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики синхронизации счетов
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о проблемах
//   (исчерпание пула, рост доли неуспешных синхронизаций)

// ============ Метрики синхронизаций ============

// SyncsTotal - количество синхронизаций по результату
// result: success | no_free_terminals | auth_failed | connect_failed |
// account_unavailable | error
var SyncsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "mtsync",
		Subsystem: "sync",
		Name:      "syncs_total",
		Help:      "Total account sync requests by result",
	},
	[]string{"result"},
)

// SyncDuration - длительность полной синхронизации счёта
// Buckets рассчитаны на последовательный цикл с инициализацией терминала
var SyncDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "mtsync",
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Full account sync duration in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	},
)

// ActiveSyncs - число синхронизаций, выполняющихся прямо сейчас
var ActiveSyncs = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "mtsync",
		Subsystem: "sync",
		Name:      "active",
		Help:      "Number of syncs currently in progress",
	},
)

// RetryAttempts - повторные попытки чтения по операциям терминала
var RetryAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "mtsync",
		Subsystem: "sync",
		Name:      "retry_attempts_total",
		Help:      "Retry attempts per terminal operation",
	},
	[]string{"operation"},
)

// ============ Метрики пула терминалов ============

// TerminalsAllocated - выдачи терминалов из пула
var TerminalsAllocated = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "mtsync",
		Subsystem: "pool",
		Name:      "terminals_allocated_total",
		Help:      "Terminals allocated from the pool",
	},
)

// TerminalsReleased - возвраты терминалов в пул
var TerminalsReleased = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "mtsync",
		Subsystem: "pool",
		Name:      "terminals_released_total",
		Help:      "Terminals released back to the pool",
	},
)

// PoolExhausted - отказы из-за отсутствия свободных терминалов
var PoolExhausted = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "mtsync",
		Subsystem: "pool",
		Name:      "exhausted_total",
		Help:      "Acquire attempts rejected because no terminal was free",
	},
)

// ============ Метрики справочника символов ============

// SymbolLookupFallbacks - деградации к параметрам символа по умолчанию
var SymbolLookupFallbacks = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "mtsync",
		Subsystem: "symbols",
		Name:      "lookup_fallbacks_total",
		Help:      "Symbol lookups that degraded to default contract size and digits",
	},
)
