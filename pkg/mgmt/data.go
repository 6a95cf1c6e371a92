package mgmt

import (
	"encoding/binary"
	"errors"
)

// Bluetooth Core Specification Supplement, Part A, Section 1
type DataType interface {
	Marshal() ([]byte, error)
}

type ADType uint8

const (
	ADTypeFlags                    ADType = 0x01
	ADTypeCompleteLocalName        ADType = 0x09
	ADTypeManufacturerSpecificData ADType = 0xFF
)

var ErrDataTooLong = errors.New("advertising data too long")

type FlagsDataType uint8

const (
	FlagsDataTypeLELimitedDiscoverableMode                           FlagsDataType = (1 << 0)
	FlagsDataTypeLEGeneralDiscoverableMode                           FlagsDataType = (1 << 1)
	FlagsDataTypeBREDRNotSupported                                   FlagsDataType = (1 << 2)
	FlagsDataTypeSimultaneousLEAndBREDRToSameDeviceCapableController FlagsDataType = (1 << 3)
)

func (f FlagsDataType) Marshal() ([]byte, error) {
	return []byte{0x02, byte(ADTypeFlags), byte(f)}, nil
}

type CompleteLocalName string

func (l CompleteLocalName) Marshal() ([]byte, error) {
	if len(l) > 0xFE {
		return nil, ErrDataTooLong
	}
	return append([]byte{byte(len(l) + 1), byte(ADTypeCompleteLocalName)}, []byte(l)...), nil
}

type ManufacturerSpecificData struct {
	CompanyID uint16
	Data      []byte
}

func (d ManufacturerSpecificData) Marshal() ([]byte, error) {
	if len(d.Data) > 0xFC {
		return nil, ErrDataTooLong
	}
	buf := make([]byte, 4+len(d.Data))
	buf[0] = byte(len(d.Data) + 3)
	buf[1] = byte(ADTypeManufacturerSpecificData)
	binary.LittleEndian.PutUint16(buf[2:], d.CompanyID)
	copy(buf[4:], d.Data)
	return buf, nil
}

// encodeData concatenates the structures into dst and returns the number of
// bytes written. Bytes of dst past that point are left untouched.
func encodeData(dst []byte, data ...DataType) (int, error) {
	n := 0
	for _, d := range data {
		ad, err := d.Marshal()
		if err != nil {
			return 0, err
		}
		if n+len(ad) > len(dst) {
			return 0, ErrDataTooLong
		}
		n += copy(dst[n:], ad)
	}
	return n, nil
}
