package mgmt

import (
	"fmt"
	"strings"
)

// IndexNone addresses the management interface itself rather than a controller.
const IndexNone uint16 = 0xFFFF

type BDAddr [6]byte

func (a BDAddr) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[5], a[4], a[3], a[2], a[1], a[0])
}

// Settings is the controller settings bitmask reported by Read Controller Information
// and the New Settings event.
type Settings uint32

const (
	SettingsPowered           Settings = (1 << 0)
	SettingsConnectable       Settings = (1 << 1)
	SettingsFastConnectable   Settings = (1 << 2)
	SettingsDiscoverable      Settings = (1 << 3)
	SettingsBondable          Settings = (1 << 4)
	SettingsLinkSecurity      Settings = (1 << 5)
	SettingsSSP               Settings = (1 << 6)
	SettingsBREDR             Settings = (1 << 7)
	SettingsHighSpeed         Settings = (1 << 8)
	SettingsLE                Settings = (1 << 9)
	SettingsAdvertising       Settings = (1 << 10)
	SettingsSecureConnections Settings = (1 << 11)
	SettingsDebugKeys         Settings = (1 << 12)
	SettingsPrivacy           Settings = (1 << 13)
	SettingsConfiguration     Settings = (1 << 14)
	SettingsStaticAddress     Settings = (1 << 15)
)

var settingsNames = []string{
	"powered",
	"connectable",
	"fast-connectable",
	"discoverable",
	"bondable",
	"link-security",
	"ssp",
	"br/edr",
	"hs",
	"le",
	"advertising",
	"secure-conn",
	"debug-keys",
	"privacy",
	"configuration",
	"static-addr",
}

func (s Settings) Has(flag Settings) bool {
	return s&flag == flag
}

func (s Settings) String() string {
	var names []string
	for i, name := range settingsNames {
		if s&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, " ")
}

// SecureConnectionsMode is the state byte of Set Secure Connections.
type SecureConnectionsMode uint8

const (
	SecureConnectionsDisabled SecureConnectionsMode = 0x00
	SecureConnectionsEnabled  SecureConnectionsMode = 0x01
	SecureConnectionsOnly     SecureConnectionsMode = 0x02
)

// AdvertisingMode is the state byte of Set Advertising.
type AdvertisingMode uint8

const (
	AdvertisingDisabled AdvertisingMode = 0x00
	// AdvertisingEnabled advertises connectable only if the connectable setting is on.
	AdvertisingEnabled     AdvertisingMode = 0x01
	AdvertisingConnectable AdvertisingMode = 0x02
)

// AdvertisingFlags is the flags field of Add Advertising. Instances are
// always added with no flags set; the kernel rejected nonzero flags with
// Invalid Parameters.
type AdvertisingFlags uint32
