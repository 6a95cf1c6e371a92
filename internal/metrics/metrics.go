package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muxable/btmgmt/pkg/mgmt"
)

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// CommandMetrics counts mgmt commands by opcode and outcome. It implements
// mgmt.CommandObserver.
type CommandMetrics struct {
	Commands *prometheus.CounterVec // labels: command, result
	Settings prometheus.Gauge
}

func NewCommandMetrics(reg prometheus.Registerer) *CommandMetrics {
	m := &CommandMetrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "btmgmt_commands_total",
			Help: "Management commands sent, by command and result.",
		}, []string{"command", "result"}),
		Settings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "btmgmt_controller_settings",
			Help: "Current settings bitmask of the configured controller.",
		}),
	}
	reg.MustRegister(m.Commands, m.Settings)
	return m
}

func (m *CommandMetrics) ObserveCommand(op mgmt.Opcode, err error) {
	m.Commands.WithLabelValues(op.String(), result(err)).Inc()
}

func (m *CommandMetrics) ObserveSettings(s mgmt.Settings) {
	m.Settings.Set(float64(s))
}

func result(err error) string {
	var serr *mgmt.StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &serr):
		return "rejected"
	case errors.Is(err, mgmt.ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}
