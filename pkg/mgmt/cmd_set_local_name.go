package mgmt

import (
	"bytes"

	"go.uber.org/zap"
)

const setLocalNamePayloadSize = MaxNameLength + 1 + MaxShortNameLength + 1

type SetLocalNameCommandPacket struct {
	Index     uint16
	Name      [MaxNameLength + 1]byte
	ShortName [MaxShortNameLength + 1]byte
}

// NewSetLocalNameCommandPacket truncates both names and copies them into
// zeroed buffers, so each buffer always holds at least one trailing NUL.
func NewSetLocalNameCommandPacket(index uint16, name, shortName string) *SetLocalNameCommandPacket {
	p := &SetLocalNameCommandPacket{Index: index}
	copy(p.Name[:], TruncateName(name))
	copy(p.ShortName[:], TruncateShortName(shortName))
	return p
}

func (p *SetLocalNameCommandPacket) Marshal() ([]byte, error) {
	buf := newFrame(uint16(OpcodeSetLocalName), p.Index, setLocalNamePayloadSize)
	copy(buf[HeaderSize:], p.Name[:])
	copy(buf[HeaderSize+len(p.Name):], p.ShortName[:])
	return buf, nil
}

func (p *SetLocalNameCommandPacket) Unmarshal(buf []byte) error {
	h, payload, err := unmarshalCommand(buf, OpcodeSetLocalName, setLocalNamePayloadSize)
	if err != nil {
		return err
	}
	p.Index = h.Index
	copy(p.Name[:], payload[:len(p.Name)])
	copy(p.ShortName[:], payload[len(p.Name):])
	return nil
}

func (p *SetLocalNameCommandPacket) Opcode() Opcode {
	return OpcodeSetLocalName
}

func (p *SetLocalNameCommandPacket) ControllerIndex() uint16 {
	return p.Index
}

// LocalName returns the name up to its first NUL.
func (p *SetLocalNameCommandPacket) LocalName() string {
	return cString(p.Name[:])
}

func (p *SetLocalNameCommandPacket) LocalShortName() string {
	return cString(p.ShortName[:])
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// SetName sets the adapter name and short name. Either may be truncated, see
// TruncateName and TruncateShortName.
func (m *Mgmt) SetName(name, shortName string) bool {
	if err := m.send(NewSetLocalNameCommandPacket(m.index, name, shortName)); err != nil {
		m.logger.Warn("failed to set name",
			zap.String("name", name),
			zap.String("shortName", shortName),
			zap.Error(err))
		return false
	}
	return true
}
