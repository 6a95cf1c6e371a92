package mgmt

import (
	"encoding/binary"
	"errors"
	"io"
)

// HeaderSize is the size of the header that prefixes every command and event.
const HeaderSize = 6

var (
	ErrIncorrectPacket = errors.New("incorrect packet")
	// ErrInvalidLength is returned when a length field disagrees with the
	// frame it describes.
	ErrInvalidLength = errors.New("invalid length")
)

type Packet interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

type CommandPacket interface {
	Packet
	Opcode() Opcode
	ControllerIndex() uint16
}

// CommandHeader is the fixed prefix of a command frame. Length counts the
// bytes that follow the header.
type CommandHeader struct {
	Opcode Opcode
	Index  uint16
	Length uint16
}

func (h CommandHeader) Marshal() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:], uint16(h.Opcode))
	binary.LittleEndian.PutUint16(buf[2:], h.Index)
	binary.LittleEndian.PutUint16(buf[4:], h.Length)
	return buf, nil
}

func (h *CommandHeader) Unmarshal(buf []byte) error {
	if len(buf) < HeaderSize {
		return io.ErrShortBuffer
	}
	h.Opcode = Opcode(binary.LittleEndian.Uint16(buf[0:]))
	h.Index = binary.LittleEndian.Uint16(buf[2:])
	h.Length = binary.LittleEndian.Uint16(buf[4:])
	switch n := len(buf) - HeaderSize; {
	case n < int(h.Length):
		return io.ErrShortBuffer
	case n > int(h.Length):
		return ErrInvalidLength
	}
	return nil
}

// newFrame allocates a frame of the given payload size and writes its header.
// This is the only place the length field is computed.
func newFrame(code, index uint16, payloadSize int) []byte {
	buf := make([]byte, HeaderSize+payloadSize)
	binary.LittleEndian.PutUint16(buf[0:], code)
	binary.LittleEndian.PutUint16(buf[2:], index)
	binary.LittleEndian.PutUint16(buf[4:], uint16(len(buf)-HeaderSize))
	return buf
}

// unmarshalCommand validates the header of buf against op and the fixed payload
// size of the frame type, returning the header and the payload.
func unmarshalCommand(buf []byte, op Opcode, payloadSize int) (CommandHeader, []byte, error) {
	var h CommandHeader
	if err := h.Unmarshal(buf); err != nil {
		return h, nil, err
	}
	if h.Opcode != op {
		return h, nil, ErrIncorrectPacket
	}
	if int(h.Length) != payloadSize {
		return h, nil, ErrInvalidLength
	}
	return h, buf[HeaderSize:], nil
}

// GenericCommandPacket encompasses the parameterless commands.
type GenericCommandPacket struct {
	opcode Opcode
	index  uint16
}

func NewGenericCommandPacket(opcode Opcode, index uint16) *GenericCommandPacket {
	return &GenericCommandPacket{opcode: opcode, index: index}
}

func (p *GenericCommandPacket) Marshal() ([]byte, error) {
	return newFrame(uint16(p.opcode), p.index, 0), nil
}

func (p *GenericCommandPacket) Unmarshal(buf []byte) error {
	var h CommandHeader
	if err := h.Unmarshal(buf); err != nil {
		return err
	}
	if h.Length != 0 {
		return ErrInvalidLength
	}
	p.opcode = h.Opcode
	p.index = h.Index
	return nil
}

func (p *GenericCommandPacket) Opcode() Opcode {
	return p.opcode
}

func (p *GenericCommandPacket) ControllerIndex() uint16 {
	return p.index
}

// UnmarshalCommand decodes a command frame into its typed packet.
func UnmarshalCommand(buf []byte) (CommandPacket, error) {
	var h CommandHeader
	if err := h.Unmarshal(buf); err != nil {
		return nil, err
	}
	var p CommandPacket
	switch h.Opcode {
	case OpcodeSetLocalName:
		p = &SetLocalNameCommandPacket{}
	case OpcodeAddAdvertising:
		p = &AddAdvertisingCommandPacket{}
	case OpcodeRemoveAdvertising:
		p = &RemoveAdvertisingCommandPacket{}
	default:
		if isSetStateOpcode(h.Opcode) {
			p = &SetStateCommandPacket{}
			break
		}
		if h.Length != 0 {
			return nil, errors.New("unsupported command")
		}
		p = &GenericCommandPacket{}
	}
	if err := p.Unmarshal(buf); err != nil {
		return nil, err
	}
	return p, nil
}
