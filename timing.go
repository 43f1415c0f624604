/*
Copyright 2024 Tim St. Pierre
Busy-wait delays for the controller's bus timing
*/
package charlcd

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
)

// Delayer blocks the caller for the settle and recovery times the controller
// needs. There is no busy flag polling, every wait is a worst case delay.
type Delayer interface {
	DelayMicroseconds(us uint32)
	DelayMilliseconds(ms uint32)
}

// Counter is a free running cycle counter. Cycles wraps around at 2^32.
type Counter interface {
	Start() error
	Cycles() uint32
}

// CycleDelay spins on a Counter that ticks at Clock.
type CycleDelay struct {
	Counter Counter
	Clock   physic.Frequency
	// Sleep is used for millisecond delays. time.Sleep when nil.
	Sleep func(time.Duration)

	perMicro uint32
}

// NewCycleDelay returns a Delayer counting cycles of c at clock. Start must be
// called once before use; New does that.
func NewCycleDelay(c Counter, clock physic.Frequency) *CycleDelay {
	return &CycleDelay{Counter: c, Clock: clock}
}

// Start calibrates against Clock and starts the counter.
func (d *CycleDelay) Start() error {
	if d.Clock < physic.MegaHertz {
		return fmt.Errorf("charlcd: clock %s too slow for microsecond delays", d.Clock)
	}
	d.perMicro = uint32(d.Clock / physic.MegaHertz)
	if err := d.Counter.Start(); err != nil {
		return fmt.Errorf("charlcd: start counter: %w", err)
	}
	log.Debugf("Cycle delay running at %s, %d cycles/us", d.Clock, d.perMicro)
	return nil
}

func (d *CycleDelay) DelayMicroseconds(us uint32) {
	n := us * d.perMicro
	start := d.Counter.Cycles()
	for d.Counter.Cycles()-start < n {
	}
}

func (d *CycleDelay) DelayMilliseconds(ms uint32) {
	sleep := d.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	sleep(time.Duration(ms) * time.Millisecond)
}

// MonotonicClock is the tick rate of MonotonicCounter.
const MonotonicClock = physic.GigaHertz

// MonotonicCounter counts nanoseconds of the Go monotonic clock.
type MonotonicCounter struct {
	epoch time.Time
}

func (m *MonotonicCounter) Start() error {
	m.epoch = time.Now()
	return nil
}

func (m *MonotonicCounter) Cycles() uint32 {
	return uint32(time.Since(m.epoch))
}

func defaultDelay() *CycleDelay {
	return NewCycleDelay(&MonotonicCounter{}, MonotonicClock)
}
