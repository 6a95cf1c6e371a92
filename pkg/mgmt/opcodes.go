package mgmt

import "fmt"

// https://git.kernel.org/pub/scm/bluetooth/bluez.git/tree/doc/mgmt-api.txt

type Opcode uint16

const (
	OpcodeReadVersion            Opcode = 0x0001
	OpcodeReadCommands           Opcode = 0x0002
	OpcodeReadIndexList          Opcode = 0x0003
	OpcodeReadControllerInfo     Opcode = 0x0004
	OpcodeSetPowered             Opcode = 0x0005
	OpcodeSetDiscoverable        Opcode = 0x0006
	OpcodeSetConnectable         Opcode = 0x0007
	OpcodeSetFastConnectable     Opcode = 0x0008
	OpcodeSetBondable            Opcode = 0x0009
	OpcodeSetLinkSecurity        Opcode = 0x000A
	OpcodeSetSecureSimplePairing Opcode = 0x000B
	OpcodeSetHighSpeed           Opcode = 0x000C
	OpcodeSetLowEnergy           Opcode = 0x000D
	OpcodeSetDeviceClass         Opcode = 0x000E
	OpcodeSetLocalName           Opcode = 0x000F
	OpcodeSetAdvertising         Opcode = 0x0029
	OpcodeSetBREDR               Opcode = 0x002A
	OpcodeSetSecureConnections   Opcode = 0x002D
	OpcodeAddAdvertising         Opcode = 0x003E
	OpcodeRemoveAdvertising      Opcode = 0x003F
)

var opcodeNames = map[Opcode]string{
	OpcodeReadVersion:            "Read Management Version Information",
	OpcodeReadCommands:           "Read Management Supported Commands",
	OpcodeReadIndexList:          "Read Controller Index List",
	OpcodeReadControllerInfo:     "Read Controller Information",
	OpcodeSetPowered:             "Set Powered",
	OpcodeSetDiscoverable:        "Set Discoverable",
	OpcodeSetConnectable:         "Set Connectable",
	OpcodeSetFastConnectable:     "Set Fast Connectable",
	OpcodeSetBondable:            "Set Bondable",
	OpcodeSetLinkSecurity:        "Set Link Security",
	OpcodeSetSecureSimplePairing: "Set Secure Simple Pairing",
	OpcodeSetHighSpeed:           "Set High Speed",
	OpcodeSetLowEnergy:           "Set Low Energy",
	OpcodeSetDeviceClass:         "Set Device Class",
	OpcodeSetLocalName:           "Set Local Name",
	OpcodeSetAdvertising:         "Set Advertising",
	OpcodeSetBREDR:               "Set BR/EDR",
	OpcodeSetSecureConnections:   "Set Secure Connections",
	OpcodeAddAdvertising:         "Add Advertising",
	OpcodeRemoveAdvertising:      "Remove Advertising",
}

// String returns the display name of the command, used in diagnostics only.
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Unknown Command (0x%04x)", uint16(o))
}

type EventCode uint16

const (
	EventCodeCommandComplete  EventCode = 0x0001
	EventCodeCommandStatus    EventCode = 0x0002
	EventCodeControllerError  EventCode = 0x0003
	EventCodeIndexAdded       EventCode = 0x0004
	EventCodeIndexRemoved     EventCode = 0x0005
	EventCodeNewSettings      EventCode = 0x0006
	EventCodeClassOfDevice    EventCode = 0x0007
	EventCodeLocalNameChanged EventCode = 0x0008
)

// Status is the status code carried by Command Complete and Command Status events.
type Status uint8

const (
	StatusSuccess           Status = 0x00
	StatusUnknownCommand    Status = 0x01
	StatusNotConnected      Status = 0x02
	StatusFailed            Status = 0x03
	StatusConnectFailed     Status = 0x04
	StatusAuthFailed        Status = 0x05
	StatusNotPaired         Status = 0x06
	StatusNoResources       Status = 0x07
	StatusTimeout           Status = 0x08
	StatusAlreadyConnected  Status = 0x09
	StatusBusy              Status = 0x0A
	StatusRejected          Status = 0x0B
	StatusNotSupported      Status = 0x0C
	StatusInvalidParameters Status = 0x0D
	StatusDisconnected      Status = 0x0E
	StatusNotPowered        Status = 0x0F
	StatusCancelled         Status = 0x10
	StatusInvalidIndex      Status = 0x11
	StatusRFKilled          Status = 0x12
	StatusAlreadyPaired     Status = 0x13
	StatusPermissionDenied  Status = 0x14
)

var statusNames = [...]string{
	"Success",
	"Unknown Command",
	"Not Connected",
	"Failed",
	"Connect Failed",
	"Authentication Failed",
	"Not Paired",
	"No Resources",
	"Timeout",
	"Already Connected",
	"Busy",
	"Rejected",
	"Not Supported",
	"Invalid Parameters",
	"Disconnected",
	"Not Powered",
	"Cancelled",
	"Invalid Index",
	"RFKilled",
	"Already Paired",
	"Permission Denied",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Unknown Status (0x%02x)", uint8(s))
}
