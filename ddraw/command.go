package ddraw

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/tekert/golang-ddraw/ddraw/pkg/hexf"
)

// D3DHAL_DP2OPERATION values bounding the parser's opcode classes.
const (
	D3DDP2OP_POINTS              = 1
	D3DDP2OP_INDEXEDLINELIST     = 2
	D3DDP2OP_INDEXEDTRIANGLELIST = 3
	D3DDP2OP_RENDERSTATE         = 8
	D3DDP2OP_LINELIST            = 15
	D3DDP2OP_VIEWPORTINFO        = 28
	D3DDP2OP_WINFO               = 29
	d3dDP2OpUndocumented         = 0x0D
	D3DHAL_DP2COMMAND_SIZE       = 4
	D3DHAL_DP2VIEWPORTINFO_SIZE  = 16
	D3DHAL_DP2WINFO_SIZE         = 8
)

/*
typedef struct _D3DHAL_DP2COMMAND {
	BYTE bCommand;
	BYTE bReserved;
	union {
		WORD wPrimitiveCount;
		WORD wStateCount;
	};
} D3DHAL_DP2COMMAND;
*/

// DP2Command is a decoded D3DHAL_DP2COMMAND header.
type DP2Command struct {
	Command  uint8
	Reserved uint8
	Count    uint16
}

// DecodeDP2Command decodes the header at the start of b.
func DecodeDP2Command(b []byte) (DP2Command, error) {
	if len(b) < D3DHAL_DP2COMMAND_SIZE {
		return DP2Command{}, fmt.Errorf("short command header (%d bytes): %w", len(b), ErrInvalidParams)
	}
	return DP2Command{
		Command:  b[0],
		Reserved: b[1],
		Count:    binary.LittleEndian.Uint16(b[2:4]),
	}, nil
}

// recordSize returns the size of one record following the header of c.
type recordSize func(c DP2Command) int

func fixedRecord(n int) recordSize {
	return func(DP2Command) int { return n }
}

// the reserved byte doubles as the record size
func reservedRecord(c DP2Command) int {
	return int(c.Reserved)
}

// dp2Skippable lists the opcodes whose extent the parser knows: the header is
// followed by Count records of the given size.
var dp2Skippable = map[uint8]recordSize{
	D3DDP2OP_VIEWPORTINFO: fixedRecord(D3DHAL_DP2VIEWPORTINFO_SIZE),
	D3DDP2OP_WINFO:        fixedRecord(D3DHAL_DP2WINFO_SIZE),
	d3dDP2OpUndocumented:  reservedRecord,
}

// dp2Invalid reports the opcodes D3DParseUnknownCommand must never be handed:
// primitives up to indexed triangle lists, render states and everything from
// line lists up that it does not know how to skip.
func dp2Invalid(op uint8) bool {
	return op <= D3DDP2OP_INDEXEDTRIANGLELIST ||
		op == D3DDP2OP_RENDERSTATE ||
		op >= D3DDP2OP_LINELIST
}

// Advance returns how many bytes the command c spans, header included.
// Known commands are skipped, invalid ones are ErrInvalidParams and any other
// is ErrNotParsed.
func (c DP2Command) Advance() (int, error) {
	if size, ok := dp2Skippable[c.Command]; ok {
		return D3DHAL_DP2COMMAND_SIZE + int(c.Count)*size(c), nil
	}
	if dp2Invalid(c.Command) {
		return 0, fmt.Errorf("command %s: %w", hexf.NUm8(c.Command), ErrInvalidParams)
	}
	return 0, fmt.Errorf("command %s: %w", hexf.NUm8(c.Command), ErrNotParsed)
}

// ParseUnknownCommand returns the offset of the command following the one at
// the start of b. The records themselves are not read, b only needs to hold
// the header.
func ParseUnknownCommand(b []byte) (int, error) {
	c, err := DecodeDP2Command(b)
	if err != nil {
		return 0, err
	}
	return c.Advance()
}

// ParseUnknownCommandAt is ParseUnknownCommand on a native command pointer.
// Both pointers must be non nil, *next is only written on success.
func ParseUnknownCommandAt(cmd unsafe.Pointer, next *unsafe.Pointer) error {
	if cmd == nil || next == nil {
		return ErrInvalidParams
	}
	n, err := ParseUnknownCommand(unsafe.Slice((*byte)(cmd), D3DHAL_DP2COMMAND_SIZE))
	if err != nil {
		return err
	}
	*next = unsafe.Add(cmd, n)
	return nil
}
