package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados de un comando.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// CommandMetrics registra duración y resultado de los comandos de traslado y stock.
type CommandMetrics struct {
	duration  *prometheus.HistogramVec
	commands  *prometheus.CounterVec
	movements *prometheus.CounterVec
}

// NewCommandMetrics registra las métricas en el registerer dado. Con reg nil devuelve
// un recolector inerte (útil en tests).
func NewCommandMetrics(reg prometheus.Registerer) *CommandMetrics {
	if reg == nil {
		return &CommandMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_command_duration_seconds",
		Help:    "Duración de los comandos de stock en segundos.",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})
	commands := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_commands_total",
		Help: "Comandos de stock ejecutados por resultado.",
	}, []string{"command", "outcome"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Movimientos agregados al log por tipo.",
	}, []string{"type"})
	reg.MustRegister(duration, commands, movements)
	return &CommandMetrics{
		duration:  duration,
		commands:  commands,
		movements: movements,
	}
}

// Observe registra la duración y el resultado de un comando.
func (m *CommandMetrics) Observe(command, outcome string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	command = normalizeLabel(command)
	m.duration.WithLabelValues(command).Observe(d.Seconds())
	m.commands.WithLabelValues(command, normalizeLabel(outcome)).Inc()
}

// AddMovements suma n movimientos del tipo dado (tras el commit).
func (m *CommandMetrics) AddMovements(movementType string, n int) {
	if m == nil || m.movements == nil || n <= 0 {
		return
	}
	m.movements.WithLabelValues(normalizeLabel(movementType)).Add(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
