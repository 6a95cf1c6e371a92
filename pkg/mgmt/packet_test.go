package mgmt

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadLengthMatchesFrame(t *testing.T) {
	adv, err := NewAddAdvertisingCommandPacket(7, DefaultAdvertisement())
	require.NoError(t, err)
	packets := []CommandPacket{
		NewGenericCommandPacket(OpcodeReadControllerInfo, 7),
		&SetStateCommandPacket{Index: 7, Op: OpcodeSetLowEnergy, State: 1},
		NewSetLocalNameCommandPacket(7, "name", "short"),
		adv,
		&RemoveAdvertisingCommandPacket{Index: 7, Instance: 1},
	}
	for _, p := range packets {
		t.Run(p.Opcode().String(), func(t *testing.T) {
			buf, err := p.Marshal()
			require.NoError(t, err)
			var h CommandHeader
			require.NoError(t, h.Unmarshal(buf))
			assert.Equal(t, p.Opcode(), h.Opcode)
			assert.Equal(t, uint16(7), h.Index)
			assert.Equal(t, len(buf)-HeaderSize, int(h.Length))

			q, err := UnmarshalCommand(buf)
			require.NoError(t, err)
			assert.Equal(t, p, q)
		})
	}
}

func TestCommandHeaderLayout(t *testing.T) {
	buf, err := CommandHeader{Opcode: OpcodeAddAdvertising, Index: 0x0102, Length: 59}.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x3E, 0x00, 0x02, 0x01, 0x3B, 0x00}, buf)
}

func TestUnmarshalCommandErrors(t *testing.T) {
	_, err := UnmarshalCommand([]byte{0x05, 0x00})
	assert.ErrorIs(t, err, io.ErrShortBuffer)

	// length field disagrees with the buffer
	_, err = UnmarshalCommand([]byte{0x05, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01})
	assert.ErrorIs(t, err, io.ErrShortBuffer)

	// trailing bytes past the declared length
	_, err = UnmarshalCommand([]byte{0x05, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x01})
	assert.ErrorIs(t, err, ErrInvalidLength)

	// set powered carries exactly one byte
	_, err = UnmarshalCommand([]byte{0x05, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01, 0x01})
	assert.ErrorIs(t, err, ErrInvalidLength)

	p := &SetLocalNameCommandPacket{}
	err = p.Unmarshal([]byte{0x05, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01})
	assert.ErrorIs(t, err, ErrIncorrectPacket)
}

func TestSetStateRejectsOtherOpcodes(t *testing.T) {
	p := &SetStateCommandPacket{}
	err := p.Unmarshal([]byte{0x3E, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01})
	assert.ErrorIs(t, err, ErrIncorrectPacket)

	err = p.Unmarshal([]byte{0x2D, 0x00, 0x03, 0x00, 0x01, 0x00, 0x02})
	require.NoError(t, err)
	assert.Equal(t, OpcodeSetSecureConnections, p.Op)
	assert.Equal(t, uint16(3), p.Index)
	assert.Equal(t, uint8(2), p.State)
}

func TestAddAdvertisingRejectsOversizedLengths(t *testing.T) {
	p := &AddAdvertisingCommandPacket{AdvDataLen: MaxAdvertisingDataLength + 1}
	_, err := p.Marshal()
	assert.ErrorIs(t, err, ErrDataTooLong)

	p = &AddAdvertisingCommandPacket{ScanRspLen: MaxScanResponseDataLength + 1}
	_, err = p.Marshal()
	assert.ErrorIs(t, err, ErrDataTooLong)
}

func TestEncodeDataBudget(t *testing.T) {
	var buf [MaxScanResponseDataLength]byte
	n, err := encodeData(buf[:], CompleteLocalName("0123456789abcde"))
	require.NoError(t, err)
	assert.Equal(t, MaxScanResponseDataLength, n)

	_, err = encodeData(buf[:], CompleteLocalName("0123456789abcdef"))
	assert.ErrorIs(t, err, ErrDataTooLong)

	buf = [MaxScanResponseDataLength]byte{}
	n, err = encodeData(buf[:], FlagsDataTypeLEGeneralDiscoverableMode, CompleteLocalName("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 15, n)
	assert.Equal(t, []byte{0x02, 0x01, 0x02, 0x0B, 0x09}, buf[:5])
}

func TestManufacturerSpecificData(t *testing.T) {
	b, err := ManufacturerSpecificData{CompanyID: 0x02A6, Data: []byte{1, 2}}.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05, 0xFF, 0xA6, 0x02, 0x01, 0x02}, b)
}

func TestUnmarshalEvent(t *testing.T) {
	buf := []byte{0x01, 0x00, 0x00, 0x00, 0x07, 0x00, 0x05, 0x00, 0x00, 0x81, 0x0A, 0x00, 0x00}
	p, err := UnmarshalEvent(buf)
	require.NoError(t, err)
	cc, ok := p.(*CommandCompleteEventPacket)
	require.True(t, ok)
	assert.Equal(t, OpcodeSetPowered, cc.CommandOpcode)
	assert.Equal(t, StatusSuccess, cc.Status)
	assert.Equal(t, []byte{0x81, 0x0A, 0x00, 0x00}, cc.ReturnParameters)

	p, err = UnmarshalEvent([]byte{0x02, 0x00, 0x01, 0x00, 0x03, 0x00, 0x3E, 0x00, 0x0D})
	require.NoError(t, err)
	cs := p.(*CommandStatusEventPacket)
	assert.Equal(t, uint16(1), cs.Index)
	assert.Equal(t, StatusInvalidParameters, cs.Status)

	p, err = UnmarshalEvent([]byte{0x06, 0x00, 0x00, 0x00, 0x04, 0x00, 0x01, 0x06, 0x00, 0x00})
	require.NoError(t, err)
	ns := p.(*NewSettingsEventPacket)
	assert.True(t, ns.Settings.Has(SettingsPowered|SettingsLE|SettingsAdvertising))
	assert.Equal(t, "powered le advertising", ns.Settings.String())

	p, err = UnmarshalEvent([]byte{0x04, 0x00, 0x01, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.Equal(t, EventCodeIndexAdded, p.EventCode())

	_, err = UnmarshalEvent([]byte{0x06, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01, 0x06})
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = UnmarshalEvent([]byte{0x02, 0x00, 0x00, 0x00, 0x03, 0x00, 0x3E, 0x00})
	assert.ErrorIs(t, err, io.ErrShortBuffer)
}

func TestStatusError(t *testing.T) {
	err := &StatusError{Opcode: OpcodeAddAdvertising, Status: StatusInvalidParameters}
	assert.Equal(t, "Add Advertising failed: Invalid Parameters (0x0d)", err.Error())
	assert.Equal(t, "Unknown Status (0xff)", Status(0xFF).String())
	assert.Equal(t, "Unknown Command (0x1234)", Opcode(0x1234).String())
}

func TestControllerInformation(t *testing.T) {
	in := ControllerInformation{
		Address:           BDAddr{0x66, 0x55, 0x44, 0x33, 0x22, 0x11},
		BluetoothVersion:  9,
		Manufacturer:      2,
		SupportedSettings: SettingsPowered | SettingsLE | SettingsAdvertising,
		CurrentSettings:   SettingsLE,
		ClassOfDevice:     [3]byte{0x0C, 0x01, 0x00},
		Name:              "hci-name",
		ShortName:         "short",
	}
	buf, err := in.Marshal()
	require.NoError(t, err)
	require.Len(t, buf, 280)

	var out ControllerInformation
	require.NoError(t, out.Unmarshal(buf))
	assert.Equal(t, in, out)
	assert.Equal(t, "11:22:33:44:55:66", out.Address.String())

	assert.ErrorIs(t, out.Unmarshal(buf[:100]), io.ErrShortBuffer)
}
