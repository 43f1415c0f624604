/*
Copyright 2024 Tim St. Pierre
Controls an HD44780 character LCD wired straight to GPIO lines
*/
package charlcd

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

const (
	// Commands
	CMD_Clear_Display        = 0x01
	CMD_Return_Home          = 0x02
	CMD_Entry_Mode           = 0x04
	CMD_Display_Control      = 0x08
	CMD_Cursor_Display_Shift = 0x10
	CMD_Function_Set         = 0x20
	CMD_DDRAM_Set            = 0x80

	// Options
	OPT_Increment      = 0x02 // CMD_Entry_Mode
	OPT_Cursor_Shift   = 0x01 // CMD_Entry_Mode
	OPT_Enable_Display = 0x04 // CMD_Display_Control
	OPT_Enable_Cursor  = 0x02 // CMD_Display_Control
	OPT_Enable_Blink   = 0x01 // CMD_Display_Control
	OPT_Display_Shift  = 0x08 // CMD_Cursor_Display_Shift
	OPT_Shift_Right    = 0x04 // CMD_Cursor_Display_Shift 0 = Left
	OPT_8_Bit          = 0x10 // CMD_Function_Set 0 = 4 bit
	OPT_2_Lines        = 0x08 // CMD_Function_Set 0 = 1 line
	OPT_5x10_Dots      = 0x04 // CMD_Function_Set 0 = 5x8 dots
)

// Delays in microseconds.
const (
	enableSetup    = 5
	enableHold     = 5 // >450ns
	enableSettle   = 100
	transmitSettle = 5
	clearDelay     = 2000
	initRetry      = 4500 // >4.1ms
	initLastRetry  = 150  // >100us
)

var errNoBacklight = errors.New("charlcd: no backlight pin")

// Dev is one display. It is not safe for concurrent use; callers sharing a
// display must serialize access.
type Dev struct {
	pins       Pins
	delay      Delayer
	opts       Opts
	rowOffsets [MaxLines]byte
	function   byte
	control    byte
	entry      byte
	backlight  bool
	fb         framebuffer
}

func (d *Dev) String() string {
	return fmt.Sprintf("charlcd{%s %dx%d}", d.opts.Bus, d.opts.Cols, d.opts.Lines)
}

// New configures the bus lines as outputs, starts d when it has a Start
// method and runs the controller's power-on handshake.
//
// Use default options if nil is used. A nil Delayer selects a busy-wait on the
// monotonic clock.
func New(pins Pins, opts *Opts, delay Delayer) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := pins.check(opts.Bus); err != nil {
		return nil, err
	}
	if delay == nil {
		delay = defaultDelay()
	}
	d := &Dev{
		pins:       pins,
		delay:      delay,
		opts:       *opts,
		rowOffsets: opts.rowOffsets(),
		fb:         newFramebuffer(int(opts.Lines), int(opts.Cols)),
	}
	if opts.Bus == Bus8Bit {
		d.function |= OPT_8_Bit
	}
	if opts.Lines > 1 {
		d.function |= OPT_2_Lines
	}
	if opts.Font == Font5x10 {
		if opts.Lines == 1 {
			d.function |= OPT_5x10_Dots
		} else {
			log.Warnf("charlcd: 5x10 font needs a single line display, using 5x8")
		}
	}
	if !opts.RightToLeft {
		d.entry |= OPT_Increment
	}
	if opts.AutoShift {
		d.entry |= OPT_Cursor_Shift
	}

	if err := pins.configure(opts.Bus); err != nil {
		return nil, err
	}
	if s, ok := delay.(interface{ Start() error }); ok {
		if err := s.Start(); err != nil {
			return nil, err
		}
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// init follows the HD44780 datasheet figures 23 and 24: the controller may
// power up in either bus width, so the function set is repeated until it is
// known to be in 8-bit mode before switching.
func (d *Dev) init() error {
	log.Infof("Initializing %s", d)
	d.delay.DelayMilliseconds(d.opts.powerOnMillis())

	steps := []func() error{
		func() error { return writeLine(d.pins.RS, false) },
		func() error { return writeLine(d.pins.EN, false) },
	}
	if d.opts.Bus == Bus4Bit {
		steps = append(steps,
			func() error { return d.writeNibble(0x03) },
			d.wait(initRetry),
			func() error { return d.writeNibble(0x03) },
			d.wait(initRetry),
			func() error { return d.writeNibble(0x03) },
			d.wait(initLastRetry),
			// Switch to 4-bit
			func() error { return d.writeNibble(0x02) },
		)
	} else {
		functionSet := func() error { return d.SendCommand(CMD_Function_Set | d.function) }
		steps = append(steps,
			functionSet,
			d.wait(initRetry),
			functionSet,
			d.wait(initRetry),
			functionSet,
			d.wait(initLastRetry),
		)
	}
	steps = append(steps,
		func() error { return d.SendCommand(CMD_Function_Set | d.function) },
		d.DisplayOn,
		d.Clear,
		d.writeEntryMode,
	)
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dev) wait(us uint32) func() error {
	return func() error {
		d.delay.DelayMicroseconds(us)
		return nil
	}
}

// Rows returns the number of display lines.
func (d *Dev) Rows() int {
	return int(d.opts.Lines)
}

// Cols returns the number of characters per line.
func (d *Dev) Cols() int {
	return int(d.opts.Cols)
}

// DisplayControl returns the last CMD_Display_Control options sent.
func (d *Dev) DisplayControl() byte {
	return d.control
}

// EntryMode returns the CMD_Entry_Mode options set at initialization.
func (d *Dev) EntryMode() byte {
	return d.entry
}

// Halt blanks the screen and turns the display and backlight off.
func (d *Dev) Halt() error {
	if err := d.Clear(); err != nil {
		return err
	}
	if err := d.DisplayOff(); err != nil {
		return err
	}
	if d.pins.Backlight != nil {
		return d.SetBacklight(false)
	}
	return nil
}

func (d *Dev) BacklightOn() bool {
	return d.backlight
}

func (d *Dev) SetBacklight(on bool) error {
	if d.pins.Backlight == nil {
		return errNoBacklight
	}
	if err := writeLine(d.pins.Backlight, on); err != nil {
		return err
	}
	d.backlight = on
	return nil
}

// Clear blanks the controller's DDRAM and both framebuffer grids, and moves
// the cursor home. Text written since the last Flush is discarded, not
// redrawn.
func (d *Dev) Clear() error {
	if err := d.SendCommand(CMD_Clear_Display); err != nil {
		return err
	}
	d.delay.DelayMicroseconds(clearDelay)
	d.fb.reset()
	return nil
}

// Home returns the hardware cursor to the first cell. The framebuffer is
// untouched.
func (d *Dev) Home() error {
	if err := d.SendCommand(CMD_Return_Home); err != nil {
		return err
	}
	d.delay.DelayMicroseconds(clearDelay)
	return nil
}

// SetPosition moves the hardware cursor. Rows past the last line are clamped
// to the last line, negative rows and columns to 0.
func (d *Dev) SetPosition(col, row int) error {
	last := len(d.rowOffsets)
	if int(d.opts.Lines) < last {
		last = int(d.opts.Lines)
	}
	last--
	if row > last {
		row = last
	}
	if row < 0 {
		row = 0
	}
	if col < 0 {
		col = 0
	}
	address := (byte(col) + d.rowOffsets[row]) & 0x7F
	return d.SendCommand(CMD_DDRAM_Set | address)
}

func (d *Dev) DisplayOn() error {
	d.control |= OPT_Enable_Display
	return d.writeDisplaySwitch()
}

func (d *Dev) DisplayOff() error {
	d.control &^= OPT_Enable_Display
	return d.writeDisplaySwitch()
}

// SetCursorMode shows or hides the underline cursor and the blinking block.
// It also turns the display on.
func (d *Dev) SetCursorMode(cursor, blink bool) error {
	d.control = OPT_Enable_Display
	if cursor {
		d.control |= OPT_Enable_Cursor
	}
	if blink {
		d.control |= OPT_Enable_Blink
	}
	return d.writeDisplaySwitch()
}

// Shift moves the cursor, or the whole display when display is true, by one
// cell without touching DDRAM.
func (d *Dev) Shift(display, right bool) error {
	option := byte(CMD_Cursor_Display_Shift)
	if display {
		option |= OPT_Display_Shift
	}
	if right {
		option |= OPT_Shift_Right
	}
	return d.SendCommand(option)
}

func (d *Dev) writeDisplaySwitch() error {
	log.Debugf("Writing display switch %03b", d.control)
	return d.SendCommand(CMD_Display_Control | d.control)
}

func (d *Dev) writeEntryMode() error {
	return d.SendCommand(CMD_Entry_Mode | d.entry)
}

// SendCommand transmits an instruction byte. Instructions slower than the
// settle delay, like clear and home, must wait on their own afterwards.
func (d *Dev) SendCommand(data byte) error {
	return d.transmit(data, false)
}

// SendData transmits a character to the current DDRAM address.
func (d *Dev) SendData(data byte) error {
	return d.transmit(data, true)
}

func (d *Dev) transmit(data byte, rs bool) error {
	if err := d.write(data, rs); err != nil {
		return err
	}
	d.delay.DelayMicroseconds(transmitSettle)
	return nil
}

func (d *Dev) write(data byte, rs bool) error {
	log.Debugf("Writing %08b %x rs=%t", data, data, rs)
	if err := writeLine(d.pins.RS, rs); err != nil {
		return err
	}
	if d.opts.Bus == Bus8Bit {
		return d.writeByte(data)
	}
	if err := d.writeNibble(data >> 4); err != nil {
		return err
	}
	return d.writeNibble(data & 0x0F)
}

func (d *Dev) writeNibble(value byte) error {
	if err := d.pins.writeBits(value, D4, 4); err != nil {
		return err
	}
	return d.enable()
}

func (d *Dev) writeByte(value byte) error {
	if err := d.pins.writeBits(value, D0, 8); err != nil {
		return err
	}
	return d.enable()
}

// enable strobes EN; the controller latches the data lines on the falling
// edge.
func (d *Dev) enable() error {
	if err := d.pins.EN.Out(gpio.Low); err != nil {
		return fmt.Errorf("charlcd: enable: %w", err)
	}
	d.delay.DelayMicroseconds(enableSetup)
	if err := d.pins.EN.Out(gpio.High); err != nil {
		return fmt.Errorf("charlcd: enable: %w", err)
	}
	d.delay.DelayMicroseconds(enableHold)
	if err := d.pins.EN.Out(gpio.Low); err != nil {
		return fmt.Errorf("charlcd: enable: %w", err)
	}
	d.delay.DelayMicroseconds(enableSettle)
	return nil
}

var _ conn.Resource = &Dev{}
