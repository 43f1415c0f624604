/*
Copyright 2024 Tim St. Pierre
Deferred screen updates: text lands in a framebuffer, Flush pushes the
cells that changed
*/
package charlcd

import (
	log "github.com/sirupsen/logrus"
)

const blank = ' '

// framebuffer holds what the caller asked for (desired) and what the
// controller was last sent (committed).
type framebuffer struct {
	rows, cols int
	desired    [MaxLines][MaxCols]byte
	committed  [MaxLines][MaxCols]byte
	col, row   int
}

func newFramebuffer(rows, cols int) framebuffer {
	fb := framebuffer{rows: rows, cols: cols}
	fb.reset()
	return fb
}

// reset matches the controller state right after a clear: all blank, cursor
// home.
func (fb *framebuffer) reset() {
	for r := range fb.desired {
		for c := range fb.desired[r] {
			fb.desired[r][c] = blank
			fb.committed[r][c] = blank
		}
	}
	fb.col, fb.row = 0, 0
}

func (fb *framebuffer) dirty() int {
	n := 0
	for r := 0; r < fb.rows; r++ {
		for c := 0; c < fb.cols; c++ {
			if fb.desired[r][c] != fb.committed[r][c] {
				n++
			}
		}
	}
	return n
}

// Flush writes every cell that differs from what the controller holds, in
// row-major order. Each changed cell costs one address command and one data
// write; runs are not coalesced. A second Flush without edits in between does
// nothing.
//
// On error the failing cell stays uncommitted and the remaining cells are left
// for the next Flush.
func (d *Dev) Flush() error {
	fb := &d.fb
	n := 0
	for row := 0; row < fb.rows; row++ {
		for col := 0; col < fb.cols; col++ {
			c := fb.desired[row][col]
			if c == fb.committed[row][col] {
				continue
			}
			if err := d.SetPosition(col, row); err != nil {
				return err
			}
			if err := d.SendData(c); err != nil {
				return err
			}
			fb.committed[row][col] = c
			n++
		}
	}
	if n > 0 {
		log.Debugf("Flushed %d cells", n)
	}
	return nil
}

// Dirty returns how many cells the next Flush will write.
func (d *Dev) Dirty() int {
	return d.fb.dirty()
}

// Row returns line n as it will look after the next Flush.
func (d *Dev) Row(n int) string {
	if n < 0 || n >= d.fb.rows {
		return ""
	}
	return string(d.fb.desired[n][:d.fb.cols])
}

// CommittedRow returns line n as last written to the controller.
func (d *Dev) CommittedRow(n int) string {
	if n < 0 || n >= d.fb.rows {
		return ""
	}
	return string(d.fb.committed[n][:d.fb.cols])
}
