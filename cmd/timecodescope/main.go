// Command timecodescope is an interactive live-capture driver: it
// opens a PortAudio input stream, feeds frames to a timecode decoder,
// prints periodic position/pitch readings, and lets the operator
// cycle the timecode definition or quit via raw keystrokes on the
// controlling terminal.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/term"
	"github.com/spf13/pflag"

	"github.com/coldspark29/xwax/buildinfo"
	"github.com/coldspark29/xwax/config"
	"github.com/coldspark29/xwax/internal/sessionlog"
	"github.com/coldspark29/xwax/timecode"
)

/*-------------------------------------------------------------
 *
 * Purpose:	Interactive test/monitor harness, analogous in spirit
 *		to an audio test fixture: feed a live device into the
 *		decoder and watch readings update, with single-key
 *		control over which definition is active.
 *
 * Keys:	c - cycle timecode definition
 *		q - quit
 *
 *--------------------------------------------------------------*/

func readKeys(keys chan<- byte) {
	t, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		log.Warn("could not open controlling terminal for raw keys", "err", err)
		return
	}
	defer t.Restore()
	defer t.Close()

	buf := make([]byte, 1)
	for {
		n, err := t.Read(buf)
		if err != nil || n == 0 {
			return
		}
		keys <- buf[0]
	}
}

func run(cfg config.Config) error {
	def, err := timecode.FindDefinition(cfg.Timecode)
	if err != nil {
		return fmt.Errorf("timecodescope: %w", err)
	}

	dec := timecode.Init(def, cfg.Speed, cfg.SampleRate, cfg.Phono)

	if cfg.MonitorSize > 0 {
		if err := dec.MonitorInit(cfg.MonitorSize); err != nil {
			return fmt.Errorf("timecodescope: monitor init: %w", err)
		}
	}

	var logger *sessionlog.Logger
	if cfg.SessionLogDir != "" {
		logger, err = sessionlog.New(cfg.SessionLogDir, "")
		if err != nil {
			return fmt.Errorf("timecodescope: session log: %w", err)
		}
		defer logger.Close()
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("timecodescope: portaudio init: %w", err)
	}
	defer portaudio.Terminate()

	const framesPerBuffer = 512
	pcm := make([]int16, framesPerBuffer*2)

	stream, err := portaudio.OpenDefaultStream(2, 0, float64(cfg.SampleRate), framesPerBuffer, pcm)
	if err != nil {
		return fmt.Errorf("timecodescope: opening stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("timecodescope: starting stream: %w", err)
	}
	defer stream.Stop()

	keys := make(chan byte, 8)
	go readKeys(keys)

	log.Info("decoding started", "timecode", def.Name, "sample_rate", cfg.SampleRate, "press q to quit, c to cycle definition")

	for {
		select {
		case k := <-keys:
			switch k {
			case 'q', 'Q', 3: // 3 == Ctrl-C
				return nil
			case 'c', 'C':
				dec.CycleDefinition()
			}
		default:
		}

		if err := stream.Read(); err != nil {
			log.Warn("stream read error", "err", err)
			continue
		}

		dec.Submit(pcm)

		position, when := dec.GetPosition()
		pitch := dec.Pitch()
		now := time.Now()

		if position != timecode.Unknown {
			fmt.Printf("\rposition=%-10d when=%.3fs pitch=%+.4f    ", position, when, pitch)
		} else {
			fmt.Printf("\r(unknown position) pitch=%+.4f                 ", pitch)
		}

		if logger != nil {
			if err := logger.WriteReading(now, position, when, pitch); err != nil {
				log.Warn("session log write failed", "err", err)
			}
		}
	}
}

func main() {
	var (
		configPath  = pflag.StringP("config", "f", "", "path to YAML configuration file")
		defName     = pflag.StringP("timecode", "t", "", "catalog timecode name (overrides config)")
		showVersion = pflag.Bool("version", false, "print version and exit")
	)
	pflag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.String())
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal("loading config", "err", err)
		}
		cfg = loaded
	}
	if *defName != "" {
		cfg.Timecode = *defName
	}

	if err := run(cfg); err != nil {
		log.Fatal("timecodescope", "err", err)
	}

	os.Exit(0)
}
