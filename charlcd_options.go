/*
Copyright 2024 Tim St. Pierre
Options for HD44780 character displays on a parallel GPIO bus
*/
package charlcd

import (
	"errors"
	"fmt"
	"time"
)

// BusWidth selects how many data lines connect the controller.
type BusWidth uint8

const (
	Bus4Bit BusWidth = 4
	Bus8Bit BusWidth = 8
)

func (b BusWidth) String() string {
	switch b {
	case Bus4Bit:
		return "4-bit"
	case Bus8Bit:
		return "8-bit"
	}
	return fmt.Sprintf("BusWidth(%d)", uint8(b))
}

// FontSize is the character cell height.
type FontSize uint8

const (
	Font5x8 FontSize = iota
	Font5x10
)

const (
	MaxLines = 4
	MaxCols  = 16
)

// RowOffsets1604Alt is the DDRAM layout of 16x4 modules whose third and fourth
// lines start one cell early.
var RowOffsets1604Alt = [MaxLines]byte{0x00, 0x40, 0x0F, 0x4F}

var ErrOpts = errors.New("charlcd: invalid options")

type Opts struct {
	Bus BusWidth
	// How many lines does the display have
	Lines uint8
	Cols  uint8
	Font  FontSize
	// DDRAM address of the first cell of each line. All zero selects
	// {0x00, 0x40, Cols, 0x40+Cols}.
	RowOffsets [MaxLines]byte
	// Entry mode. The zero value writes left to right without shifting the
	// display.
	RightToLeft bool
	AutoShift   bool
	// Wait after power-on before the first command. Values under 40ms are
	// raised to 40ms.
	PowerOnDelay time.Duration
}

var DefaultOpts = Opts{
	Bus:          Bus4Bit,
	Lines:        2,
	Cols:         16,
	Font:         Font5x8,
	PowerOnDelay: 40 * time.Millisecond,
}

func (o *Opts) validate() error {
	switch o.Bus {
	case Bus4Bit, Bus8Bit:
	default:
		return fmt.Errorf("%w: bus width %d not supported", ErrOpts, o.Bus)
	}
	if o.Lines < 1 || o.Lines > MaxLines {
		return fmt.Errorf("%w: %d lines, want 1..%d", ErrOpts, o.Lines, MaxLines)
	}
	if o.Cols < 1 || o.Cols > MaxCols {
		return fmt.Errorf("%w: %d cols, want 1..%d", ErrOpts, o.Cols, MaxCols)
	}
	if o.Font != Font5x8 && o.Font != Font5x10 {
		return fmt.Errorf("%w: unknown font %d", ErrOpts, o.Font)
	}
	return nil
}

func (o *Opts) rowOffsets() [MaxLines]byte {
	if o.RowOffsets == [MaxLines]byte{} {
		return [MaxLines]byte{0x00, 0x40, o.Cols, 0x40 + o.Cols}
	}
	return o.RowOffsets
}

// powerOnDelay never goes below the 40ms the controller needs after Vcc
// rises.
func (o *Opts) powerOnDelay() time.Duration {
	if o.PowerOnDelay < DefaultOpts.PowerOnDelay {
		return DefaultOpts.PowerOnDelay
	}
	return o.PowerOnDelay
}

// powerOnMillis rounds the power-on delay up to whole milliseconds.
func (o *Opts) powerOnMillis() uint32 {
	d := o.powerOnDelay()
	return uint32((d + time.Millisecond - 1) / time.Millisecond)
}
