//go:build cgo

package input

// Register the RtMidi driver; without cgo no ports are found and MIDI stays off
import _ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
