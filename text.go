/*
Copyright 2024 Tim St. Pierre
Text operations on the framebuffer. None of these touch the bus; call Flush.
*/
package charlcd

// SetCursor moves the text cursor. Positions outside the display are
// ignored.
func (d *Dev) SetCursor(col, row int) {
	if col < 0 || col >= d.fb.cols || row < 0 || row >= d.fb.rows {
		return
	}
	d.fb.col, d.fb.row = col, row
}

// Cursor returns the text cursor position.
func (d *Dev) Cursor() (col, row int) {
	return d.fb.col, d.fb.row
}

// PutChar stores char at the cursor and advances it. Past the last column the
// cursor goes back to column 0 of the same line; it never moves down.
//
// This matches the firmware this driver replaces. Terminals would advance the
// row instead.
func (d *Dev) PutChar(char byte) {
	d.fb.desired[d.fb.row][d.fb.col] = char
	d.fb.col++
	if d.fb.col >= d.fb.cols {
		d.fb.col = 0
	}
}

// PutString calls PutChar for each byte of text. The controller's character
// ROM is byte indexed, so multi-byte UTF-8 sequences show as several glyphs.
func (d *Dev) PutString(text string) {
	for i := 0; i < len(text); i++ {
		d.PutChar(text[i])
	}
}

// ClearRegion moves the cursor to (col, row) and writes length blanks. An
// invalid position leaves the cursor where it was, like SetCursor.
func (d *Dev) ClearRegion(col, row, length int) {
	d.SetCursor(col, row)
	for ; length > 0; length-- {
		d.PutChar(blank)
	}
}
