/*
Copyright 2024 Tim St. Pierre
periph.io display.TextDisplay on top of the framebuffer
*/
package charlcd

import (
	"fmt"

	"periph.io/x/conn/v3/display"
)

// TextDisplay adapts a Dev to display.TextDisplay. Every Write lands in the
// framebuffer and is flushed before returning. Positions are 1 based.
type TextDisplay struct {
	dev *Dev
}

func NewTextDisplay(dev *Dev) *TextDisplay {
	return &TextDisplay{dev: dev}
}

func (t *TextDisplay) String() string {
	return t.dev.String()
}

func (t *TextDisplay) Halt() error {
	return t.dev.Halt()
}

// Not supported by the controller without display shifting. Returns
// display.ErrNotImplemented.
func (t *TextDisplay) AutoScroll(enabled bool) error {
	return display.ErrNotImplemented
}

func (t *TextDisplay) Clear() error {
	return t.dev.Clear()
}

func (t *TextDisplay) Cols() int {
	return t.dev.Cols()
}

func (t *TextDisplay) Rows() int {
	return t.dev.Rows()
}

func (t *TextDisplay) MinCol() int {
	return 1
}

func (t *TextDisplay) MinRow() int {
	return 1
}

// Cursor sets the cursor appearance. CursorBlock and CursorBlink both select
// the controller's blinking block.
func (t *TextDisplay) Cursor(modes ...display.CursorMode) error {
	var cursor, blink bool
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			cursor, blink = false, false
		case display.CursorUnderline:
			cursor = true
		case display.CursorBlink, display.CursorBlock:
			blink = true
		default:
			return fmt.Errorf("charlcd: unexpected cursor: %d", mode)
		}
	}
	if err := t.dev.SetCursorMode(cursor, blink); err != nil {
		return err
	}
	return t.syncCursor()
}

func (t *TextDisplay) Home() error {
	t.dev.SetCursor(0, 0)
	return t.syncCursor()
}

func (t *TextDisplay) Move(dir display.CursorDirection) error {
	col, row := t.dev.Cursor()
	switch dir {
	case display.Forward:
		col = (col + 1) % t.dev.Cols()
	case display.Backward:
		col = (col + t.dev.Cols() - 1) % t.dev.Cols()
	case display.Down:
		row++
	case display.Up:
		row--
	default:
		return fmt.Errorf("charlcd: %w", display.ErrNotImplemented)
	}
	if row < 0 || row >= t.dev.Rows() {
		return fmt.Errorf("charlcd: move past line %d", row+1)
	}
	t.dev.SetCursor(col, row)
	return t.syncCursor()
}

func (t *TextDisplay) MoveTo(row, col int) error {
	if row < t.MinRow() || row > t.Rows() || col < t.MinCol() || col > t.Cols() {
		return fmt.Errorf("charlcd: MoveTo(%d,%d) value out of range", row, col)
	}
	t.dev.SetCursor(col-1, row-1)
	return t.syncCursor()
}

func (t *TextDisplay) Display(on bool) error {
	if on {
		return t.dev.DisplayOn()
	}
	return t.dev.DisplayOff()
}

func (t *TextDisplay) Write(p []byte) (int, error) {
	for _, c := range p {
		t.dev.PutChar(c)
	}
	// On error the bytes stay queued in the framebuffer for the next Flush.
	if err := t.dev.Flush(); err != nil {
		return len(p), err
	}
	return len(p), t.syncCursor()
}

func (t *TextDisplay) WriteString(text string) (int, error) {
	return t.Write([]byte(text))
}

// Backlight turns the backlight pin on for any non zero intensity.
func (t *TextDisplay) Backlight(intensity display.Intensity) error {
	return t.dev.SetBacklight(intensity > 0)
}

// syncCursor points the hardware cursor at the text cursor when it is
// visible, since Flush leaves it after the last written cell.
func (t *TextDisplay) syncCursor() error {
	if t.dev.DisplayControl()&(OPT_Enable_Cursor|OPT_Enable_Blink) == 0 {
		return nil
	}
	col, row := t.dev.Cursor()
	return t.dev.SetPosition(col, row)
}

var _ display.TextDisplay = &TextDisplay{}
var _ display.DisplayBacklight = &TextDisplay{}
