// Command timecodewav is an offline driver: it decodes a 16-bit PCM
// stereo .wav file through the timecode decoder and prints position
// and pitch readings as it goes, without needing a live capture
// device.
package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/coldspark29/xwax/buildinfo"
	"github.com/coldspark29/xwax/timecode"
)

/*-------------------------------------------------------------
 *
 * Purpose:	Parse a canonical PCM .wav file by hand and feed its
 *		frames to a timecode.Decoder, in block-sized chunks.
 *
 *--------------------------------------------------------------*/

type waveFormat struct {
	numChannels   uint16
	sampleRate    uint32
	bitsPerSample uint16
}

// readWaveHeader walks the RIFF chunk list, returning the format and
// leaving r positioned at the start of the "data" chunk's samples.
func readWaveHeader(r io.Reader) (waveFormat, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return waveFormat{}, fmt.Errorf("reading RIFF header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return waveFormat{}, fmt.Errorf("not a RIFF/WAVE file")
	}

	var format waveFormat
	haveFormat := false

	for {
		var chunkID [4]byte
		var chunkSize uint32

		if _, err := io.ReadFull(r, chunkID[:]); err != nil {
			return waveFormat{}, fmt.Errorf("reading chunk id: %w", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &chunkSize); err != nil {
			return waveFormat{}, fmt.Errorf("reading chunk size: %w", err)
		}

		switch string(chunkID[:]) {
		case "fmt ":
			body := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, body); err != nil {
				return waveFormat{}, fmt.Errorf("reading fmt chunk: %w", err)
			}
			format.numChannels = binary.LittleEndian.Uint16(body[2:4])
			format.sampleRate = binary.LittleEndian.Uint32(body[4:8])
			format.bitsPerSample = binary.LittleEndian.Uint16(body[14:16])
			haveFormat = true

		case "data":
			if !haveFormat {
				return waveFormat{}, fmt.Errorf("data chunk before fmt chunk")
			}
			return format, nil

		default:
			if _, err := io.CopyN(io.Discard, r, int64(chunkSize)); err != nil {
				return waveFormat{}, fmt.Errorf("skipping chunk %q: %w", chunkID, err)
			}
		}

		if chunkSize%2 == 1 {
			if _, err := io.CopyN(io.Discard, r, 1); err != nil {
				return waveFormat{}, err
			}
		}
	}
}

func main() {
	var (
		wavPath     = pflag.StringP("wav", "w", "", "path to a 16-bit PCM stereo .wav file")
		defName     = pflag.StringP("timecode", "t", "serato_2a", "catalog timecode name")
		speed       = pflag.Float64P("speed", "s", 1.0, "nominal playback speed multiplier")
		phono       = pflag.Bool("phono", false, "treat input as phono level (lower crossing threshold)")
		blockFrames = pflag.Int("block-frames", 1024, "frames submitted to the decoder per block")
		showVersion = pflag.Bool("version", false, "print version and exit")
	)
	pflag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.String())
		return
	}

	if *wavPath == "" {
		fmt.Fprintln(os.Stderr, "timecodewav: --wav is required")
		pflag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*wavPath)
	if err != nil {
		log.Fatal("opening wav file", "err", err)
	}
	defer f.Close()

	format, err := readWaveHeader(f)
	if err != nil {
		log.Fatal("parsing wav file", "err", err)
	}
	if format.numChannels != 2 || format.bitsPerSample != 16 {
		log.Fatal("unsupported wav format, need 16-bit stereo PCM",
			"channels", format.numChannels, "bits_per_sample", format.bitsPerSample)
	}

	def, err := timecode.FindDefinition(*defName)
	if err != nil {
		log.Fatal("unknown timecode definition", "name", *defName, "err", err)
	}

	dec := timecode.Init(def, *speed, uint(format.sampleRate), *phono)

	pcm := make([]int16, (*blockFrames)*2)
	var framesRead int64

	for {
		if err := binary.Read(f, binary.LittleEndian, &pcm); err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				break
			}
			log.Fatal("reading samples", "err", err)
		}

		dec.Submit(pcm)
		framesRead += int64(*blockFrames)

		position, when := dec.GetPosition()
		if position != timecode.Unknown {
			fmt.Printf("frame %10d: position=%d when=%.3fs pitch=%+.4f\n", framesRead, position, when, dec.Pitch())
		}
	}

	fmt.Printf("done: %d frames processed\n", framesRead)
}
