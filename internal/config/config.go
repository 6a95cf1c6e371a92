package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/muxable/btmgmt/pkg/mgmt"
)

// ControllerConfig selects the controller and how long to wait for the kernel.
type ControllerConfig struct {
	Index          uint16        `mapstructure:"index"`
	CommandTimeout time.Duration `mapstructure:"commandTimeout"`
}

// AdapterConfig is the configuration applied to the controller at startup.
type AdapterConfig struct {
	Name              string `mapstructure:"name"`
	ShortName         string `mapstructure:"shortName"`
	BREDR             bool   `mapstructure:"bredr"`
	SecureConnections uint8  `mapstructure:"secureConnections"`
	Bondable          bool   `mapstructure:"bondable"`
	Connectable       bool   `mapstructure:"connectable"`
	LE                bool   `mapstructure:"le"`
	Advertising       uint8  `mapstructure:"advertising"`
	Advertise         bool   `mapstructure:"advertise"`
}

// AdvertisementConfig is the manufacturer payload and scan response name.
type AdvertisementConfig struct {
	CompanyID   uint16 `mapstructure:"companyID"`
	Model       uint8  `mapstructure:"model"`
	PCBAVersion uint8  `mapstructure:"pcbaVersion"`
	ErrorStatus uint8  `mapstructure:"errorStatus"`
	Battery     uint8  `mapstructure:"battery"`
	Serial      string `mapstructure:"serial"`
	LocalName   string `mapstructure:"localName"`
}

// LumberjackConfig configures log file rotation.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

type MetricsConfig struct {
	Enable bool   `mapstructure:"enable"`
	Addr   string `mapstructure:"addr"`
	Path   string `mapstructure:"path"`
}

type Config struct {
	Controller    ControllerConfig    `mapstructure:"controller"`
	Adapter       AdapterConfig       `mapstructure:"adapter"`
	Advertisement AdvertisementConfig `mapstructure:"advertisement"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

// Load reads configuration from a YAML/TOML/JSON file and BTMGMT_ prefixed
// environment variables. If path is empty BTMGMT_CONFIG is consulted, then
// btmgmt.yaml in the working directory and /etc/btmgmt.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = os.Getenv("BTMGMT_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/btmgmt")
		v.SetConfigName("btmgmt")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix("BTMGMT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, defaults and the environment still apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("controller.index", 0)
	v.SetDefault("controller.commandTimeout", "5s")

	v.SetDefault("adapter.name", "Gobbledegook")
	v.SetDefault("adapter.shortName", "Gobbledok")
	v.SetDefault("adapter.bredr", false)
	v.SetDefault("adapter.secureConnections", 1)
	v.SetDefault("adapter.bondable", true)
	v.SetDefault("adapter.connectable", true)
	v.SetDefault("adapter.le", true)
	v.SetDefault("adapter.advertising", 1)
	v.SetDefault("adapter.advertise", true)

	d := mgmt.DefaultAdvertisement()
	v.SetDefault("advertisement.companyID", d.CompanyID)
	v.SetDefault("advertisement.model", d.Model)
	v.SetDefault("advertisement.pcbaVersion", d.PCBAVersion)
	v.SetDefault("advertisement.errorStatus", d.ErrorStatus)
	v.SetDefault("advertisement.battery", d.Battery)
	v.SetDefault("advertisement.serial", hex.EncodeToString(d.Serial[:]))
	v.SetDefault("advertisement.localName", d.LocalName)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 28)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", false)
	v.SetDefault("metrics.addr", ":9101")
	v.SetDefault("metrics.path", "/metrics")
}

// Validate rejects state values outside what the kernel accepts.
func (c *Config) Validate() error {
	if c.Adapter.SecureConnections > uint8(mgmt.SecureConnectionsOnly) {
		return fmt.Errorf("adapter.secureConnections: %d out of range 0-2", c.Adapter.SecureConnections)
	}
	if c.Adapter.Advertising > uint8(mgmt.AdvertisingConnectable) {
		return fmt.Errorf("adapter.advertising: %d out of range 0-2", c.Adapter.Advertising)
	}
	if _, err := c.Advertisement.serial(); err != nil {
		return err
	}
	return nil
}

func (c AdvertisementConfig) serial() ([10]byte, error) {
	var serial [10]byte
	b, err := hex.DecodeString(c.Serial)
	if err != nil {
		return serial, fmt.Errorf("advertisement.serial: %w", err)
	}
	if len(b) > len(serial) {
		return serial, fmt.Errorf("advertisement.serial: %d bytes, at most %d", len(b), len(serial))
	}
	copy(serial[:], b)
	return serial, nil
}

func (c *Config) Profile() mgmt.Profile {
	return mgmt.Profile{
		Name:              c.Adapter.Name,
		ShortName:         c.Adapter.ShortName,
		BREDR:             c.Adapter.BREDR,
		SecureConnections: mgmt.SecureConnectionsMode(c.Adapter.SecureConnections),
		Bondable:          c.Adapter.Bondable,
		Connectable:       c.Adapter.Connectable,
		LE:                c.Adapter.LE,
		Advertising:       mgmt.AdvertisingMode(c.Adapter.Advertising),
		Advertise:         c.Adapter.Advertise,
	}
}

// AdvertisementPayload assumes the config passed Validate.
func (c *Config) AdvertisementPayload() mgmt.Advertisement {
	serial, _ := c.Advertisement.serial()
	return mgmt.Advertisement{
		CompanyID:   c.Advertisement.CompanyID,
		Model:       c.Advertisement.Model,
		PCBAVersion: c.Advertisement.PCBAVersion,
		ErrorStatus: c.Advertisement.ErrorStatus,
		Battery:     c.Advertisement.Battery,
		Serial:      serial,
		LocalName:   c.Advertisement.LocalName,
	}
}
