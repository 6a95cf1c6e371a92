package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/muxable/btmgmt/pkg/mgmt"
)

func TestCommandMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCommandMetrics(reg)

	m.ObserveCommand(mgmt.OpcodeSetPowered, nil)
	m.ObserveCommand(mgmt.OpcodeSetPowered, nil)
	m.ObserveCommand(mgmt.OpcodeAddAdvertising, &mgmt.StatusError{Opcode: mgmt.OpcodeAddAdvertising, Status: mgmt.StatusInvalidParameters})
	m.ObserveCommand(mgmt.OpcodeSetLowEnergy, mgmt.ErrTimeout)
	m.ObserveCommand(mgmt.OpcodeSetLocalName, errors.New("broken pipe"))
	m.ObserveSettings(mgmt.SettingsPowered | mgmt.SettingsLE)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Commands.WithLabelValues("Set Powered", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("Add Advertising", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("Set Low Energy", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("Set Local Name", "error")))
	assert.Equal(t, float64(0x201), testutil.ToFloat64(m.Settings))
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	m := NewCommandMetrics(reg)
	m.ObserveCommand(mgmt.OpcodeSetPowered, nil)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `btmgmt_commands_total{command="Set Powered",result="ok"} 1`))
}
