//go:build linux

// Command timecodedevices lists candidate ALSA capture devices via
// udev, to help an operator pick the turntable interface before
// starting timecodescope.
package main

import (
	"fmt"
	"os"

	"github.com/jochenvg/go-udev"
	"github.com/spf13/pflag"

	"github.com/coldspark29/xwax/buildinfo"
)

func main() {
	var showVersion = pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.String())
		return
	}

	u := udev.Udev{}
	enum := u.NewEnumerate()

	if err := enum.AddMatchSubsystem("sound"); err != nil {
		fmt.Fprintf(os.Stderr, "timecodedevices: matching sound subsystem: %v\n", err)
		os.Exit(1)
	}

	devices, err := enum.Devices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "timecodedevices: enumerating devices: %v\n", err)
		os.Exit(1)
	}

	found := 0
	for _, d := range devices {
		node := d.Devnode()
		if node == "" {
			continue
		}
		found++

		model := d.PropertyValue("ID_MODEL")
		if model == "" {
			model = d.PropertyValue("ID_MODEL_FROM_DATABASE")
		}

		fmt.Printf("%s\t%s\n", node, model)
	}

	if found == 0 {
		fmt.Println("no sound devices found")
	}
}
