package mgmt

import (
	"encoding/binary"

	"go.uber.org/zap"
)

const (
	// MaxAdvertisingDataLength is the legacy LE advertising PDU data limit.
	MaxAdvertisingDataLength = 31
	// MaxScanResponseDataLength is the scan response budget of an instance.
	MaxScanResponseDataLength = 17

	// DefaultAdvertisingInstance is the only instance this package registers.
	DefaultAdvertisingInstance uint8 = 0x01

	addAdvertisingPayloadSize = 1 + 4 + 2 + 2 + 1 + 1 + MaxAdvertisingDataLength + MaxScanResponseDataLength

	// flags(3) + manufacturer header(4) leaves the rest of the PDU to the
	// manufacturer payload.
	manufacturerDataLength = MaxAdvertisingDataLength - 3 - 4
	serialNumberLength     = 10
	// the scan response name fills the budget after its length and type bytes.
	scanResponseNameLength = MaxScanResponseDataLength - 2
)

// Advertisement describes the payload of the advertising instance.
type Advertisement struct {
	CompanyID   uint16
	Model       uint8
	PCBAVersion uint8
	ErrorStatus uint8
	Battery     uint8
	Serial      [serialNumberLength]byte
	// LocalName is sent as the Complete Local Name of the scan response. It is
	// cut or zero padded to fill the scan response exactly.
	LocalName string
}

func DefaultAdvertisement() Advertisement {
	return Advertisement{
		CompanyID: 0x02A6, // Robert Bosch GmbH
		Battery:   100,
		Serial:    [serialNumberLength]byte{0xB0, 0xD0, 0x56, 0xF2, 0xB5, 0x12},
		LocalName: "SKYWALKER-XXXXX",
	}
}

// AdvertisingData encodes the Flags and Manufacturer Specific Data structures.
// Manufacturer bytes past the serial number are reserved and zero.
func (a Advertisement) AdvertisingData() ([MaxAdvertisingDataLength]byte, error) {
	var buf [MaxAdvertisingDataLength]byte
	payload := make([]byte, manufacturerDataLength)
	payload[0] = a.Model
	payload[1] = a.PCBAVersion
	payload[2] = a.ErrorStatus
	payload[3] = a.Battery
	copy(payload[4:], a.Serial[:])
	_, err := encodeData(buf[:],
		FlagsDataTypeBREDRNotSupported|FlagsDataTypeLEGeneralDiscoverableMode,
		ManufacturerSpecificData{CompanyID: a.CompanyID, Data: payload})
	return buf, err
}

// ScanResponseData encodes the Complete Local Name structure sized to the
// whole scan response.
func (a Advertisement) ScanResponseData() ([MaxScanResponseDataLength]byte, error) {
	var buf [MaxScanResponseDataLength]byte
	name := make([]byte, scanResponseNameLength)
	copy(name, a.LocalName)
	_, err := encodeData(buf[:], CompleteLocalName(name))
	return buf, err
}

type AddAdvertisingCommandPacket struct {
	Index       uint16
	Instance    uint8
	Flags       AdvertisingFlags
	Duration    uint16
	Timeout     uint16
	AdvDataLen  uint8
	ScanRspLen  uint8
	AdvData     [MaxAdvertisingDataLength]byte
	ScanRspData [MaxScanResponseDataLength]byte
}

// NewAddAdvertisingCommandPacket builds instance 1 from a. Flags stay zero:
// the kernel answers Invalid Parameters when connectable and discoverable
// are requested together with our own Flags structure. Zero duration and
// timeout advertise indefinitely with default parameters.
func NewAddAdvertisingCommandPacket(index uint16, a Advertisement) (*AddAdvertisingCommandPacket, error) {
	adv, err := a.AdvertisingData()
	if err != nil {
		return nil, err
	}
	rsp, err := a.ScanResponseData()
	if err != nil {
		return nil, err
	}
	return &AddAdvertisingCommandPacket{
		Index:       index,
		Instance:    DefaultAdvertisingInstance,
		AdvDataLen:  MaxAdvertisingDataLength,
		ScanRspLen:  MaxScanResponseDataLength,
		AdvData:     adv,
		ScanRspData: rsp,
	}, nil
}

func (p *AddAdvertisingCommandPacket) Marshal() ([]byte, error) {
	if p.AdvDataLen > MaxAdvertisingDataLength || p.ScanRspLen > MaxScanResponseDataLength {
		return nil, ErrDataTooLong
	}
	buf := newFrame(uint16(OpcodeAddAdvertising), p.Index, addAdvertisingPayloadSize)
	b := buf[HeaderSize:]
	b[0] = p.Instance
	binary.LittleEndian.PutUint32(b[1:], uint32(p.Flags))
	binary.LittleEndian.PutUint16(b[5:], p.Duration)
	binary.LittleEndian.PutUint16(b[7:], p.Timeout)
	b[9] = p.AdvDataLen
	b[10] = p.ScanRspLen
	copy(b[11:], p.AdvData[:])
	copy(b[11+MaxAdvertisingDataLength:], p.ScanRspData[:])
	return buf, nil
}

func (p *AddAdvertisingCommandPacket) Unmarshal(buf []byte) error {
	h, b, err := unmarshalCommand(buf, OpcodeAddAdvertising, addAdvertisingPayloadSize)
	if err != nil {
		return err
	}
	if b[9] > MaxAdvertisingDataLength || b[10] > MaxScanResponseDataLength {
		return ErrDataTooLong
	}
	p.Index = h.Index
	p.Instance = b[0]
	p.Flags = AdvertisingFlags(binary.LittleEndian.Uint32(b[1:]))
	p.Duration = binary.LittleEndian.Uint16(b[5:])
	p.Timeout = binary.LittleEndian.Uint16(b[7:])
	p.AdvDataLen = b[9]
	p.ScanRspLen = b[10]
	copy(p.AdvData[:], b[11:11+MaxAdvertisingDataLength])
	copy(p.ScanRspData[:], b[11+MaxAdvertisingDataLength:])
	return nil
}

func (p *AddAdvertisingCommandPacket) Opcode() Opcode {
	return OpcodeAddAdvertising
}

func (p *AddAdvertisingCommandPacket) ControllerIndex() uint16 {
	return p.Index
}

type RemoveAdvertisingCommandPacket struct {
	Index    uint16
	Instance uint8
}

func (p *RemoveAdvertisingCommandPacket) Marshal() ([]byte, error) {
	buf := newFrame(uint16(OpcodeRemoveAdvertising), p.Index, 1)
	buf[HeaderSize] = p.Instance
	return buf, nil
}

func (p *RemoveAdvertisingCommandPacket) Unmarshal(buf []byte) error {
	h, b, err := unmarshalCommand(buf, OpcodeRemoveAdvertising, 1)
	if err != nil {
		return err
	}
	p.Index = h.Index
	p.Instance = b[0]
	return nil
}

func (p *RemoveAdvertisingCommandPacket) Opcode() Opcode {
	return OpcodeRemoveAdvertising
}

func (p *RemoveAdvertisingCommandPacket) ControllerIndex() uint16 {
	return p.Index
}

// AddAdvertising registers the advertising instance built from the configured
// Advertisement.
func (m *Mgmt) AddAdvertising() bool {
	p, err := NewAddAdvertisingCommandPacket(m.index, m.advertisement)
	if err == nil {
		err = m.send(p)
	}
	if err != nil {
		m.logger.Warn("failed to start advertising with manufacturer data",
			zap.Uint16("companyID", m.advertisement.CompanyID),
			zap.String("localName", m.advertisement.LocalName),
			zap.Error(err))
		return false
	}
	return true
}

// RemoveAdvertising removes the instance registered by AddAdvertising.
func (m *Mgmt) RemoveAdvertising() bool {
	p := &RemoveAdvertisingCommandPacket{Index: m.index, Instance: DefaultAdvertisingInstance}
	if err := m.send(p); err != nil {
		m.logger.Warn("failed to remove advertising", zap.Error(err))
		return false
	}
	return true
}
