package charlcd

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlushChangedCellsOnly(t *testing.T) {
	td := newTestDev(t, nil)
	td.SetCursor(0, 0)
	td.PutString("AB")
	td.SetCursor(5, 1)
	td.PutChar('Z')
	if got := td.Dirty(); got != 3 {
		t.Errorf("Dirty() = %d, want 3", got)
	}
	if err := td.Flush(); err != nil {
		t.Fatal(err)
	}
	want := []latch{
		cmd(0x80), data('A'),
		cmd(0x81), data('B'),
		cmd(0xC5), data('Z'),
	}
	if diff := cmp.Diff(want, td.sent()); diff != "" {
		t.Errorf("sent (-want +got):\n%s", diff)
	}
	if got := td.Dirty(); got != 0 {
		t.Errorf("Dirty() after Flush = %d, want 0", got)
	}
	if got, want := td.CommittedRow(1), "     Z          "; got != want {
		t.Errorf("CommittedRow(1) = %q, want %q", got, want)
	}
}

func TestFlushIdempotent(t *testing.T) {
	td := newTestDev(t, nil)
	td.PutString("HELLO")
	if err := td.Flush(); err != nil {
		t.Fatal(err)
	}
	td.rec.reset()
	if err := td.Flush(); err != nil {
		t.Fatal(err)
	}
	if n := len(td.rec.latches); n != 0 {
		t.Errorf("second Flush wrote %d times, want 0", n)
	}
}

func TestFlushCoalescesEdits(t *testing.T) {
	td := newTestDev(t, nil)
	for _, c := range []byte("xyz") {
		td.SetCursor(3, 0)
		td.PutChar(c)
	}
	if err := td.Flush(); err != nil {
		t.Fatal(err)
	}
	want := []latch{cmd(0x83), data('z')}
	if diff := cmp.Diff(want, td.sent()); diff != "" {
		t.Errorf("sent (-want +got):\n%s", diff)
	}

	// Writing back what the controller already shows costs nothing.
	td.rec.reset()
	td.SetCursor(3, 0)
	td.PutChar('q')
	td.SetCursor(3, 0)
	td.PutChar('z')
	if err := td.Flush(); err != nil {
		t.Fatal(err)
	}
	if n := len(td.rec.latches); n != 0 {
		t.Errorf("Flush of unchanged cell wrote %d times, want 0", n)
	}
}

func TestFlushCellCount(t *testing.T) {
	td := newTestDev(t, &Opts{Bus: Bus8Bit, Lines: 4, Cols: 16})
	td.SetCursor(0, 0)
	td.PutString("0123456789ABCDEF")
	td.SetCursor(0, 3)
	td.PutString("wxyz")
	// Blanks over blanks are not changes.
	td.ClearRegion(0, 2, 16)
	if err := td.Flush(); err != nil {
		t.Fatal(err)
	}
	sent := td.sent()
	if got, want := len(sent), 2*20; got != want {
		t.Fatalf("sent %d bytes, want %d", got, want)
	}
	for i := 0; i < len(sent); i += 2 {
		if sent[i].RS || sent[i].Value&CMD_DDRAM_Set == 0 {
			t.Errorf("byte %d = %+v, want address command", i, sent[i])
		}
		if !sent[i+1].RS {
			t.Errorf("byte %d = %+v, want data", i+1, sent[i+1])
		}
	}
	if got := td.CommittedRow(3); got != "wxyz            " {
		t.Errorf("CommittedRow(3) = %q", got)
	}
}

func TestFlushLeavesCommittedUntilWritten(t *testing.T) {
	td := newTestDev(t, nil)
	td.SetCursor(2, 1)
	td.PutChar('K')
	if got := td.Row(1); got != "  K             " {
		t.Errorf("Row(1) = %q", got)
	}
	if got := td.CommittedRow(1); got != strings.Repeat(" ", 16) {
		t.Errorf("CommittedRow(1) = %q before Flush", got)
	}
	if n := len(td.rec.latches); n != 0 {
		t.Errorf("PutChar wrote to the bus %d times", n)
	}
}

func TestFlushError(t *testing.T) {
	td := newTestDev(t, nil)
	td.PutString("AB")
	td.rec.fail = "RS"
	if err := td.Flush(); !errors.Is(err, errStuck) {
		t.Fatalf("Flush() error = %v, want errStuck", err)
	}
	if got := td.Dirty(); got != 2 {
		t.Errorf("Dirty() = %d after failed Flush, want 2", got)
	}
	td.rec.fail = ""
	if err := td.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := td.CommittedRow(0)[:2]; got != "AB" {
		t.Errorf("CommittedRow(0) = %q", got)
	}
}

func TestClearResetsFramebuffer(t *testing.T) {
	td := newTestDev(t, nil)
	td.PutString("HELLO")
	if err := td.Flush(); err != nil {
		t.Fatal(err)
	}
	td.SetCursor(4, 1)
	td.PutChar('!')
	td.rec.reset()
	td.delay.calls = nil
	if err := td.Clear(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]latch{cmd(CMD_Clear_Display)}, td.sent()); diff != "" {
		t.Errorf("sent (-want +got):\n%s", diff)
	}
	if last := td.delay.calls[len(td.delay.calls)-1]; last != "2000us" {
		t.Errorf("last delay = %s, want 2000us", last)
	}
	for r := 0; r < td.Rows(); r++ {
		if td.Row(r) != strings.Repeat(" ", 16) || td.CommittedRow(r) != strings.Repeat(" ", 16) {
			t.Errorf("row %d not blank: %q / %q", r, td.Row(r), td.CommittedRow(r))
		}
	}
	if col, row := td.Cursor(); col != 0 || row != 0 {
		t.Errorf("Cursor() = %d,%d, want 0,0", col, row)
	}

	// The unflushed '!' is gone, not redrawn.
	td.rec.reset()
	if err := td.Flush(); err != nil {
		t.Fatal(err)
	}
	if n := len(td.rec.latches); n != 0 {
		t.Errorf("Flush after Clear wrote %d times, want 0", n)
	}
}

func TestRowOutOfRange(t *testing.T) {
	td := newTestDev(t, nil)
	if td.Row(2) != "" || td.CommittedRow(-1) != "" {
		t.Error("rows outside the display should be empty")
	}
}
