package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muxable/btmgmt/pkg/mgmt"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "btmgmt.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, uint16(0), cfg.Controller.Index)
	assert.Equal(t, 5*time.Second, cfg.Controller.CommandTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enable)

	p := cfg.Profile()
	assert.Equal(t, "Gobbledegook", p.Name)
	assert.Equal(t, mgmt.SecureConnectionsEnabled, p.SecureConnections)
	assert.Equal(t, mgmt.AdvertisingEnabled, p.Advertising)
	assert.True(t, p.LE)
	assert.True(t, p.Advertise)

	assert.Equal(t, mgmt.DefaultAdvertisement(), cfg.AdvertisementPayload())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
controller:
  index: 1
  commandTimeout: 2s
adapter:
  name: Kitchen Sensor
  shortName: Kitchen
  secureConnections: 2
  advertising: 2
advertisement:
  companyID: 0xFFFF
  battery: 55
  serial: "0102"
  localName: KITCHEN
`)
	t.Setenv("BTMGMT_ADAPTER_BONDABLE", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), cfg.Controller.Index)
	assert.Equal(t, 2*time.Second, cfg.Controller.CommandTimeout)

	p := cfg.Profile()
	assert.Equal(t, "Kitchen Sensor", p.Name)
	assert.Equal(t, "Kitchen", p.ShortName)
	assert.Equal(t, mgmt.SecureConnectionsOnly, p.SecureConnections)
	assert.Equal(t, mgmt.AdvertisingConnectable, p.Advertising)
	assert.False(t, p.Bondable)

	a := cfg.AdvertisementPayload()
	assert.Equal(t, uint16(0xFFFF), a.CompanyID)
	assert.Equal(t, uint8(55), a.Battery)
	assert.Equal(t, [10]byte{0x01, 0x02}, a.Serial)
	assert.Equal(t, "KITCHEN", a.LocalName)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "adapter:\n  secureConnections: 3\n"))
	assert.ErrorContains(t, err, "secureConnections")

	_, err = Load(writeConfig(t, "adapter:\n  advertising: 7\n"))
	assert.ErrorContains(t, err, "advertising")

	_, err = Load(writeConfig(t, "advertisement:\n  serial: zz\n"))
	assert.ErrorContains(t, err, "serial")

	_, err = Load(writeConfig(t, "advertisement:\n  serial: \"0102030405060708090a0b\"\n"))
	assert.ErrorContains(t, err, "at most 10")
}
