package charlcd

import (
	"errors"
	"fmt"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// latch is one set of data lines captured on a falling edge of EN.
type latch struct {
	RS    bool
	Value byte
}

// recorder plays the controller side of the bus.
type recorder struct {
	levels  map[string]gpio.Level
	latches []latch
	fail    string
}

var errStuck = errors.New("pin stuck")

type recPin struct {
	gpiotest.Pin
	rec *recorder
}

func (p *recPin) Out(l gpio.Level) error {
	if p.rec.fail == p.N {
		return errStuck
	}
	prev := p.rec.levels[p.N]
	p.rec.levels[p.N] = l
	if p.N == "EN" && prev == gpio.High && l == gpio.Low {
		p.rec.latch()
	}
	return p.Pin.Out(l)
}

func (r *recorder) latch() {
	var v byte
	for i := 0; i < 8; i++ {
		if r.levels[fmt.Sprintf("D%d", i)] == gpio.High {
			v |= 1 << i
		}
	}
	r.latches = append(r.latches, latch{RS: bool(r.levels["RS"]), Value: v})
}

// nibbles returns the latches as 4-bit values read from D4-D7.
func (r *recorder) nibbles() []latch {
	out := make([]latch, len(r.latches))
	for i, l := range r.latches {
		out[i] = latch{RS: l.RS, Value: l.Value >> 4}
	}
	return out
}

// bytes4 joins pairs of nibbles starting at latch index from.
func (r *recorder) bytes4(from int) []latch {
	n := r.nibbles()[from:]
	var out []latch
	for i := 0; i+1 < len(n); i += 2 {
		out = append(out, latch{RS: n[i].RS, Value: n[i].Value<<4 | n[i+1].Value})
	}
	return out
}

func (r *recorder) reset() {
	r.latches = nil
}

func (r *recorder) pin(name string, num int) *recPin {
	return &recPin{Pin: gpiotest.Pin{N: name, Num: num}, rec: r}
}

func newRecorder(bus BusWidth, backlight bool) (Pins, *recorder) {
	r := &recorder{levels: map[string]gpio.Level{}}
	var p Pins
	first := D4
	if bus == Bus8Bit {
		first = D0
	}
	for i := first; i < 8; i++ {
		p.Data[i] = r.pin(fmt.Sprintf("D%d", i), i)
	}
	p.EN = r.pin("EN", 8)
	p.RS = r.pin("RS", 9)
	if backlight {
		p.Backlight = r.pin("BL", 10)
	}
	return p, r
}

// fakeDelay records every requested delay instead of waiting.
type fakeDelay struct {
	started bool
	calls   []string
}

func (f *fakeDelay) Start() error {
	f.started = true
	return nil
}

func (f *fakeDelay) DelayMicroseconds(us uint32) {
	f.calls = append(f.calls, fmt.Sprintf("%dus", us))
}

func (f *fakeDelay) DelayMilliseconds(ms uint32) {
	f.calls = append(f.calls, fmt.Sprintf("%dms", ms))
}

type testDev struct {
	*Dev
	rec   *recorder
	delay *fakeDelay
}

func newTestDev(t *testing.T, opts *Opts) testDev {
	t.Helper()
	bus := Bus4Bit
	if opts != nil {
		bus = opts.Bus
	}
	pins, rec := newRecorder(bus, true)
	delay := &fakeDelay{}
	dev, err := New(pins, opts, delay)
	if err != nil {
		t.Fatal(err)
	}
	rec.reset()
	delay.calls = nil
	return testDev{Dev: dev, rec: rec, delay: delay}
}

// sent returns the bytes transmitted since the last reset.
func (td testDev) sent() []latch {
	if td.opts.Bus == Bus8Bit {
		return td.rec.latches
	}
	return td.rec.bytes4(0)
}

func cmd(v byte) latch {
	return latch{RS: false, Value: v}
}

func data(v byte) latch {
	return latch{RS: true, Value: v}
}
