package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	rvr "github.com/nicholasjackson/sphero-rvr"
)

var doScan = flag.Bool("scan", false, "Scan for RVR devices")
var addr = flag.String("address", "", "Bluetooth address to connect to")

func main() {
	flag.Parse()

	if *doScan {
		scan()
	}

	if *addr != "" {
		connect(*addr)
	}
}

func scan() {
	ad, err := rvr.NewBluetoothAdapter(createLogger())
	if err != nil {
		fmt.Printf("Unable to create a bluetooth adapter: %s\n", err)
		os.Exit(1)
	}

	sr := ad.ScanForRVRs()

	for r := range sr {
		fmt.Printf("Found device: %s, address: %s\n", r.Name, r.Address.String())
	}
}

func connect(addr string) {
	logger := createLogger()

	adapter, err := rvr.NewBluetoothAdapter(logger)
	if err != nil {
		fmt.Printf("Unable to create a bluetooth adapter: %s\n", err)
		os.Exit(1)
	}

	robot, err := rvr.Connect(addr, adapter, logger)
	if err != nil {
		fmt.Printf("Unable to connect to the RVR: %s\n", err)
		os.Exit(1)
	}
	defer robot.Close()

	robot.
		Blink(52, 122, 235, 300*time.Millisecond, 3).
		EnableColorSensor().
		EnableAmbientStream()

	// watch sensor events for a few seconds
	go func() {
		for ev := range robot.Events() {
			switch e := ev.(type) {
			case rvr.ColorEvent:
				fmt.Printf("color: r=%d g=%d b=%d\n", e.R, e.G, e.B)
			case rvr.AmbientEvent:
				fmt.Printf("ambient: %.2f lux\n", e.Lux)
			}
		}
	}()

	// drive a square
	for i := 0; i < 4; i++ {
		robot.
			DriveTankFor(120, 120, 1500*time.Millisecond).
			TurnDegrees(90, 80)
	}

	if c, ok := robot.GetColor(2 * time.Second); ok {
		fmt.Printf("surface color: r=%d g=%d b=%d confidence=%d\n", c.R, c.G, c.B, c.Confidence)
	}

	if e, ok := robot.ReadEncoders(2 * time.Second); ok {
		fmt.Printf("encoders: left=%d right=%d\n", e.Left, e.Right)
	}

	robot.Fade(52, 122, 235, 0, 0, 0, time.Second).Sleep()
}

func createLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{Level: hclog.Trace, Color: hclog.AutoColor})
}
