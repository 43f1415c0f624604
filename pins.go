/*
Copyright 2024 Tim St. Pierre
Parallel GPIO bus between the host and the HD44780 controller
*/
package charlcd

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
)

// Data line indexes into Pins.Data.
const (
	D0 = iota
	D1
	D2
	D3
	D4
	D5
	D6
	D7
)

var ErrPinMissing = errors.New("charlcd: pin not connected")

// Pins maps the controller's signal lines to GPIO outputs.
//
// A 4-bit bus only needs Data[D4] to Data[D7]. R/W is expected to be tied to
// ground; the controller is never read.
type Pins struct {
	Data [8]gpio.PinOut
	EN   gpio.PinOut
	RS   gpio.PinOut
	// Optional.
	Backlight gpio.PinOut
}

func (p *Pins) firstData(bus BusWidth) int {
	if bus == Bus8Bit {
		return D0
	}
	return D4
}

// lines returns every line the bus needs, data lines first.
func (p *Pins) lines(bus BusWidth) []gpio.PinOut {
	l := make([]gpio.PinOut, 0, 10)
	l = append(l, p.Data[p.firstData(bus):]...)
	return append(l, p.EN, p.RS)
}

func (p *Pins) check(bus BusWidth) error {
	for i := p.firstData(bus); i < len(p.Data); i++ {
		if p.Data[i] == nil {
			return fmt.Errorf("%w: D%d", ErrPinMissing, i)
		}
	}
	if p.EN == nil {
		return fmt.Errorf("%w: EN", ErrPinMissing)
	}
	if p.RS == nil {
		return fmt.Errorf("%w: RS", ErrPinMissing)
	}
	return nil
}

// configure drives every bus line low, which also makes it an output.
func (p *Pins) configure(bus BusWidth) error {
	for _, l := range p.lines(bus) {
		if err := l.Out(gpio.Low); err != nil {
			return fmt.Errorf("charlcd: configure %s: %w", l, err)
		}
	}
	if p.Backlight != nil {
		if err := p.Backlight.Out(gpio.Low); err != nil {
			return fmt.Errorf("charlcd: configure %s: %w", p.Backlight, err)
		}
	}
	log.Debugf("Configured %s bus", bus)
	return nil
}

func writeLine(l gpio.PinOut, on bool) error {
	if err := l.Out(gpio.Level(on)); err != nil {
		return fmt.Errorf("charlcd: write %s: %w", l, err)
	}
	return nil
}

// writeBits puts the low n bits of value on the data lines starting at first,
// bit 0 on the lowest line.
func (p *Pins) writeBits(value byte, first, n int) error {
	for i := 0; i < n; i++ {
		if err := writeLine(p.Data[first+i], (value>>i)&0x01 == 0x01); err != nil {
			return err
		}
	}
	return nil
}
