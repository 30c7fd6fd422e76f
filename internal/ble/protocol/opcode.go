// Package protocol defines the single-byte command vocabulary understood by
// the electronic scoreboard firmware.
package protocol

import "fmt"

// Opcode is one command byte written to the scoreboard's control
// characteristic.
type Opcode byte

const (
	OpTeamAPointUp      Opcode = 0x01
	OpTeamAPointDown    Opcode = 0x02
	OpTeamBPointUp      Opcode = 0x03
	OpTeamATimeout      Opcode = 0x04
	OpTeamAServe        Opcode = 0x05
	OpTeamAFoul         Opcode = 0x06
	OpTeamBFoul         Opcode = 0x07
	OpTeamBServe        Opcode = 0x08
	OpTeamBTimeout      Opcode = 0x09
	OpTeamBPointDown    Opcode = 0x0A
	OpClockToggle       Opcode = 0x0B
	OpAlarmToggle       Opcode = 0x0C
	OpReset             Opcode = 0x0D
	OpAdvancePeriod     Opcode = 0x0E
	OpPreset5           Opcode = 0x0F
	OpPreset7           Opcode = 0x10
	OpPreset10          Opcode = 0x11
	OpPreset15          Opcode = 0x12
	OpPreset20          Opcode = 0x13
	OpPreset30          Opcode = 0x14
	minOpcode                  = OpTeamAPointUp
	maxOpcode                  = OpPreset30
)

// Valid reports whether op belongs to the firmware vocabulary.
func (op Opcode) Valid() bool {
	return op >= minOpcode && op <= maxOpcode
}

// Encode returns the wire form of op. Every command is exactly one byte.
func (op Opcode) Encode() []byte {
	return []byte{byte(op)}
}

func (op Opcode) String() string {
	return fmt.Sprintf("0x%02X", byte(op))
}

// Decode parses a single command byte. Used by test doubles and the
// bench tooling to read back what was written.
func Decode(data []byte) (Opcode, error) {
	if len(data) != 1 {
		return 0, fmt.Errorf("protocol: command must be 1 byte, got %d", len(data))
	}
	op := Opcode(data[0])
	if !op.Valid() {
		return 0, fmt.Errorf("protocol: unknown opcode %s", op)
	}
	return op, nil
}
