// Command charlcd-demo writes a couple of lines to an HD44780 display wired
// to the host's GPIO header.
//
// Default wiring on a Raspberry Pi, 4-bit bus with R/W tied to ground:
//
//	Display    Raspberry Pi
//	RS         GPIO25
//	E          GPIO24
//	D4         GPIO23
//	D5         GPIO17
//	D6         GPIO18
//	D7         GPIO22
package main

import (
	"flag"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/tstpierre-tc/charlcd"
)

var (
	rsPin     = flag.String("rs", "GPIO25", "Register select pin name")
	enPin     = flag.String("en", "GPIO24", "Enable pin name")
	dataPins  = flag.String("data", "GPIO23,GPIO17,GPIO18,GPIO22", "Data pin names, D4-D7 or D0-D7")
	blPin     = flag.String("backlight", "", "Backlight pin name, empty if not wired")
	lines     = flag.Int("lines", 2, "Display lines")
	cols      = flag.Int("cols", 16, "Display columns")
	altOffset = flag.Bool("alt-offsets", false, "Use 0x0F/0x4F offsets for lines 3 and 4")
	debug     = flag.Bool("debug", false, "Log every bus transfer")
)

func pinByName(name string) gpio.PinOut {
	p := gpioreg.ByName(name)
	if p == nil {
		log.Fatalf("GPIO pin %s not found", name)
	}
	return p
}

func main() {
	flag.Parse()
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	if _, err := host.Init(); err != nil {
		log.Fatalf("Failed to initialize periph.io: %v", err)
	}

	opts := charlcd.DefaultOpts
	opts.Lines = uint8(*lines)
	opts.Cols = uint8(*cols)
	if *altOffset {
		opts.RowOffsets = charlcd.RowOffsets1604Alt
	}

	pins := charlcd.Pins{
		RS: pinByName(*rsPin),
		EN: pinByName(*enPin),
	}
	names := strings.Split(*dataPins, ",")
	first := charlcd.D4
	switch len(names) {
	case 4:
		opts.Bus = charlcd.Bus4Bit
	case 8:
		opts.Bus = charlcd.Bus8Bit
		first = charlcd.D0
	default:
		log.Fatalf("Need 4 or 8 data pins, got %d", len(names))
	}
	for i, name := range names {
		pins.Data[first+i] = pinByName(name)
	}
	if *blPin != "" {
		pins.Backlight = pinByName(*blPin)
	}

	dev, err := charlcd.New(pins, &opts, nil)
	if err != nil {
		log.Fatalf("Failed to initialize display: %v", err)
	}
	log.Infof("Opened %s", dev)
	if pins.Backlight != nil {
		if err := dev.SetBacklight(true); err != nil {
			log.Fatal(err)
		}
	}

	dev.SetCursor(0, 0)
	dev.PutString("periph charlcd")
	for i := 0; i < 10; i++ {
		dev.ClearRegion(0, 1, dev.Cols())
		dev.SetCursor(0, 1)
		dev.PutString(time.Now().Format("15:04:05"))
		if err := dev.Flush(); err != nil {
			log.Fatal(err)
		}
		time.Sleep(time.Second)
	}

	if err := dev.Halt(); err != nil {
		log.Fatal(err)
	}
}
