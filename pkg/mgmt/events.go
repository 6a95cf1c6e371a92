package mgmt

import (
	"encoding/binary"
	"fmt"
)

type EventPacket interface {
	Packet
	EventCode() EventCode
	ControllerIndex() uint16
}

// EventHeader shares the layout of CommandHeader.
type EventHeader struct {
	Code   EventCode
	Index  uint16
	Length uint16
}

func (h *EventHeader) Unmarshal(buf []byte) error {
	var c CommandHeader
	if err := c.Unmarshal(buf); err != nil {
		return err
	}
	h.Code = EventCode(c.Opcode)
	h.Index = c.Index
	h.Length = c.Length
	return nil
}

func UnmarshalEvent(buf []byte) (EventPacket, error) {
	var h EventHeader
	if err := h.Unmarshal(buf); err != nil {
		return nil, err
	}
	var p EventPacket
	switch h.Code {
	case EventCodeCommandComplete:
		p = &CommandCompleteEventPacket{}
	case EventCodeCommandStatus:
		p = &CommandStatusEventPacket{}
	case EventCodeNewSettings:
		p = &NewSettingsEventPacket{}
	default:
		p = &GenericEventPacket{}
	}
	if err := p.Unmarshal(buf); err != nil {
		return nil, err
	}
	return p, nil
}

// StatusError is returned for commands the kernel answered with a non-success status.
type StatusError struct {
	Opcode Opcode
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%02x)", e.Opcode, e.Status, uint8(e.Status))
}

type CommandCompleteEventPacket struct {
	Index            uint16
	CommandOpcode    Opcode
	Status           Status
	ReturnParameters []byte
}

func (p *CommandCompleteEventPacket) Marshal() ([]byte, error) {
	buf := newFrame(uint16(EventCodeCommandComplete), p.Index, 3+len(p.ReturnParameters))
	binary.LittleEndian.PutUint16(buf[HeaderSize:], uint16(p.CommandOpcode))
	buf[HeaderSize+2] = byte(p.Status)
	copy(buf[HeaderSize+3:], p.ReturnParameters)
	return buf, nil
}

func (p *CommandCompleteEventPacket) Unmarshal(buf []byte) error {
	var h EventHeader
	if err := h.Unmarshal(buf); err != nil {
		return err
	}
	if h.Code != EventCodeCommandComplete {
		return ErrIncorrectPacket
	}
	if h.Length < 3 {
		return ErrInvalidLength
	}
	p.Index = h.Index
	p.CommandOpcode = Opcode(binary.LittleEndian.Uint16(buf[HeaderSize:]))
	p.Status = Status(buf[HeaderSize+2])
	p.ReturnParameters = buf[HeaderSize+3:]
	return nil
}

func (p *CommandCompleteEventPacket) EventCode() EventCode {
	return EventCodeCommandComplete
}

func (p *CommandCompleteEventPacket) ControllerIndex() uint16 {
	return p.Index
}

type CommandStatusEventPacket struct {
	Index         uint16
	CommandOpcode Opcode
	Status        Status
}

func (p *CommandStatusEventPacket) Marshal() ([]byte, error) {
	buf := newFrame(uint16(EventCodeCommandStatus), p.Index, 3)
	binary.LittleEndian.PutUint16(buf[HeaderSize:], uint16(p.CommandOpcode))
	buf[HeaderSize+2] = byte(p.Status)
	return buf, nil
}

func (p *CommandStatusEventPacket) Unmarshal(buf []byte) error {
	var h EventHeader
	if err := h.Unmarshal(buf); err != nil {
		return err
	}
	if h.Code != EventCodeCommandStatus {
		return ErrIncorrectPacket
	}
	if h.Length != 3 {
		return ErrInvalidLength
	}
	p.Index = h.Index
	p.CommandOpcode = Opcode(binary.LittleEndian.Uint16(buf[HeaderSize:]))
	p.Status = Status(buf[HeaderSize+2])
	return nil
}

func (p *CommandStatusEventPacket) EventCode() EventCode {
	return EventCodeCommandStatus
}

func (p *CommandStatusEventPacket) ControllerIndex() uint16 {
	return p.Index
}

type NewSettingsEventPacket struct {
	Index    uint16
	Settings Settings
}

func (p *NewSettingsEventPacket) Marshal() ([]byte, error) {
	buf := newFrame(uint16(EventCodeNewSettings), p.Index, 4)
	binary.LittleEndian.PutUint32(buf[HeaderSize:], uint32(p.Settings))
	return buf, nil
}

func (p *NewSettingsEventPacket) Unmarshal(buf []byte) error {
	var h EventHeader
	if err := h.Unmarshal(buf); err != nil {
		return err
	}
	if h.Code != EventCodeNewSettings {
		return ErrIncorrectPacket
	}
	if h.Length != 4 {
		return ErrInvalidLength
	}
	p.Index = h.Index
	p.Settings = Settings(binary.LittleEndian.Uint32(buf[HeaderSize:]))
	return nil
}

func (p *NewSettingsEventPacket) EventCode() EventCode {
	return EventCodeNewSettings
}

func (p *NewSettingsEventPacket) ControllerIndex() uint16 {
	return p.Index
}

// GenericEventPacket holds events this package does not decode.
type GenericEventPacket struct {
	Code       EventCode
	Index      uint16
	Parameters []byte
}

func (p *GenericEventPacket) Marshal() ([]byte, error) {
	buf := newFrame(uint16(p.Code), p.Index, len(p.Parameters))
	copy(buf[HeaderSize:], p.Parameters)
	return buf, nil
}

func (p *GenericEventPacket) Unmarshal(buf []byte) error {
	var h EventHeader
	if err := h.Unmarshal(buf); err != nil {
		return err
	}
	p.Code = h.Code
	p.Index = h.Index
	p.Parameters = buf[HeaderSize:]
	return nil
}

func (p *GenericEventPacket) EventCode() EventCode {
	return p.Code
}

func (p *GenericEventPacket) ControllerIndex() uint16 {
	return p.Index
}
