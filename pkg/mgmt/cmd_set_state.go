package mgmt

import "go.uber.org/zap"

const setStatePayloadSize = 1

// isSetStateOpcode reports whether op takes a single state byte.
func isSetStateOpcode(op Opcode) bool {
	switch op {
	case OpcodeSetPowered, OpcodeSetConnectable, OpcodeSetFastConnectable, OpcodeSetBondable,
		OpcodeSetLinkSecurity, OpcodeSetSecureSimplePairing, OpcodeSetHighSpeed, OpcodeSetLowEnergy,
		OpcodeSetAdvertising, OpcodeSetBREDR, OpcodeSetSecureConnections:
		return true
	}
	return false
}

// SetStateCommandPacket is shared by every command whose only parameter is a
// single state byte. The valid range of State depends on the opcode.
type SetStateCommandPacket struct {
	Index uint16
	Op    Opcode
	State uint8
}

func (p *SetStateCommandPacket) Marshal() ([]byte, error) {
	buf := newFrame(uint16(p.Op), p.Index, setStatePayloadSize)
	buf[HeaderSize] = p.State
	return buf, nil
}

func (p *SetStateCommandPacket) Unmarshal(buf []byte) error {
	var h CommandHeader
	if err := h.Unmarshal(buf); err != nil {
		return err
	}
	if !isSetStateOpcode(h.Opcode) {
		return ErrIncorrectPacket
	}
	if h.Length != setStatePayloadSize {
		return ErrInvalidLength
	}
	p.Index = h.Index
	p.Op = h.Opcode
	p.State = buf[HeaderSize]
	return nil
}

func (p *SetStateCommandPacket) Opcode() Opcode {
	return p.Op
}

func (p *SetStateCommandPacket) ControllerIndex() uint16 {
	return p.Index
}

func boolState(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// setState is the single encoder used by every state toggle.
func (m *Mgmt) setState(op Opcode, state uint8) bool {
	p := &SetStateCommandPacket{Index: m.index, Op: op, State: state}
	if err := m.send(p); err != nil {
		m.logger.Warn("failed to set state",
			zap.Stringer("command", op),
			zap.Uint8("state", state),
			zap.Error(err))
		return false
	}
	return true
}

// SetPowered powers the controller on or off.
func (m *Mgmt) SetPowered(on bool) bool {
	return m.setState(OpcodeSetPowered, boolState(on))
}

func (m *Mgmt) SetBREDR(on bool) bool {
	return m.setState(OpcodeSetBREDR, boolState(on))
}

func (m *Mgmt) SetSecureConnections(mode SecureConnectionsMode) bool {
	return m.setState(OpcodeSetSecureConnections, uint8(mode))
}

func (m *Mgmt) SetBondable(on bool) bool {
	return m.setState(OpcodeSetBondable, boolState(on))
}

func (m *Mgmt) SetConnectable(on bool) bool {
	return m.setState(OpcodeSetConnectable, boolState(on))
}

func (m *Mgmt) SetLE(on bool) bool {
	return m.setState(OpcodeSetLowEnergy, boolState(on))
}

// SetAdvertising sets the legacy advertising mode. AdvertisingEnabled honours
// the connectable setting, AdvertisingConnectable forces connectable advertising.
func (m *Mgmt) SetAdvertising(mode AdvertisingMode) bool {
	return m.setState(OpcodeSetAdvertising, uint8(mode))
}
