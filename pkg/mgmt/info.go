package mgmt

import (
	"encoding/binary"
	"io"
)

type VersionInformation struct {
	Version  uint8
	Revision uint16
}

func (v *VersionInformation) Unmarshal(buf []byte) error {
	if len(buf) < 3 {
		return io.ErrShortBuffer
	}
	v.Version = buf[0]
	v.Revision = binary.LittleEndian.Uint16(buf[1:])
	return nil
}

const controllerInformationSize = 6 + 1 + 2 + 4 + 4 + 3 + MaxNameLength + 1 + MaxShortNameLength + 1

// ControllerInformation is the reply to Read Controller Information.
type ControllerInformation struct {
	Address           BDAddr
	BluetoothVersion  uint8
	Manufacturer      uint16
	SupportedSettings Settings
	CurrentSettings   Settings
	ClassOfDevice     [3]byte
	Name              string
	ShortName         string
}

func (c *ControllerInformation) Unmarshal(buf []byte) error {
	if len(buf) < controllerInformationSize {
		return io.ErrShortBuffer
	}
	copy(c.Address[:], buf[0:6])
	c.BluetoothVersion = buf[6]
	c.Manufacturer = binary.LittleEndian.Uint16(buf[7:])
	c.SupportedSettings = Settings(binary.LittleEndian.Uint32(buf[9:]))
	c.CurrentSettings = Settings(binary.LittleEndian.Uint32(buf[13:]))
	copy(c.ClassOfDevice[:], buf[17:20])
	c.Name = cString(buf[20 : 20+MaxNameLength+1])
	c.ShortName = cString(buf[20+MaxNameLength+1 : controllerInformationSize])
	return nil
}

func (c *ControllerInformation) Marshal() ([]byte, error) {
	buf := make([]byte, controllerInformationSize)
	copy(buf[0:], c.Address[:])
	buf[6] = c.BluetoothVersion
	binary.LittleEndian.PutUint16(buf[7:], c.Manufacturer)
	binary.LittleEndian.PutUint32(buf[9:], uint32(c.SupportedSettings))
	binary.LittleEndian.PutUint32(buf[13:], uint32(c.CurrentSettings))
	copy(buf[17:], c.ClassOfDevice[:])
	copy(buf[20:20+MaxNameLength], TruncateName(c.Name))
	copy(buf[20+MaxNameLength+1:controllerInformationSize-1], TruncateShortName(c.ShortName))
	return buf, nil
}
