package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/voiceloop/constant"
)

// CaptureFormat is the PCM format of capture streams and exported artifacts
func CaptureFormat(sr beep.SampleRate) beep.Format {
	return beep.Format{SampleRate: sr, NumChannels: constant.AudioChannels, Precision: constant.AudioBitDepth / 8}
}

// EncodePCM16 converts stereo float frames to interleaved int16 LE bytes
// Values outside [-1, 1] are hard clipped
func EncodePCM16(samples [][2]float64) []byte {
	out := make([]byte, len(samples)*constant.AudioBytesPerFrame)
	for i, s := range samples {
		idx := i * constant.AudioBytesPerFrame
		binary.LittleEndian.PutUint16(out[idx:], uint16(toInt16(s[0])))
		binary.LittleEndian.PutUint16(out[idx+2:], uint16(toInt16(s[1])))
	}
	return out
}

func toInt16(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * math.MaxInt16)
}

// AssembleWAV wraps PCM16 chunks in a RIFF/WAVE container
// A trailing partial frame, left by a recorder killed mid-write, is dropped
func AssembleWAV(format beep.Format, chunks [][]byte) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	blockAlign := format.NumChannels * format.Precision
	dataLen := total
	if blockAlign > 0 {
		dataLen -= total % blockAlign
	}

	buf := new(bytes.Buffer)
	buf.Grow(44 + dataLen)
	writeWAVHeader(buf, format, dataLen)
	remaining := dataLen
	for _, c := range chunks {
		if len(c) > remaining {
			c = c[:remaining]
		}
		buf.Write(c)
		remaining -= len(c)
	}
	return buf.Bytes()
}

// writeWAVHeader writes a 44-byte PCM header for dataLen bytes of sample data
func writeWAVHeader(buf *bytes.Buffer, format beep.Format, dataLen int) {
	numChannels := format.NumChannels
	bytesPerSample := format.Precision
	sampleRate := int(format.SampleRate)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))                                    // fmt chunk size
	binary.Write(buf, binary.LittleEndian, uint16(1))                                     // PCM
	binary.Write(buf, binary.LittleEndian, uint16(numChannels))                           // channels
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))                            // sample rate
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*numChannels*bytesPerSample)) // avgBytesPerSec
	binary.Write(buf, binary.LittleEndian, uint16(numChannels*bytesPerSample))            // blockAlign
	binary.Write(buf, binary.LittleEndian, uint16(8*bytesPerSample))                      // bits per sample
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
}

// wavPCM16Scale undoes the 1<<16-1 divisor the wav decoder applies to 16-bit samples
const wavPCM16Scale = float64(1<<16-1) / math.MaxInt16

// DecodeClip decodes WAV data into an in-memory clip at sample rate sr
func DecodeClip(data []byte, sr beep.SampleRate) (*beep.Buffer, error) {
	streamer, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if format.Precision == 2 {
		src = rescale(src, wavPCM16Scale)
	}
	clip, err := bufferClip(src, format.SampleRate, sr)
	if err != nil {
		return nil, err
	}
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return clip, nil
}

// DecodePCM decodes signed PCM chunks in format into a clip at sample rate sr
// A trailing partial frame is dropped
func DecodePCM(format beep.Format, chunks [][]byte, sr beep.SampleRate) (*beep.Buffer, error) {
	width := format.Width()
	if width <= 0 {
		return nil, fmt.Errorf("%w: invalid format %+v", ErrDecode, format)
	}
	var raw []byte
	for _, c := range chunks {
		raw = append(raw, c...)
	}

	frames := make([][2]float64, 0, len(raw)/width)
	for len(raw) >= width {
		sample, n := format.DecodeSigned(raw)
		frames = append(frames, sample)
		raw = raw[n:]
	}
	return bufferClip(framesStreamer(frames), format.SampleRate, sr)
}

func bufferClip(src beep.Streamer, from, to beep.SampleRate) (*beep.Buffer, error) {
	if from != to {
		src = beep.Resample(constant.ResampleQuality, from, to, src)
	}
	clip := beep.NewBuffer(CaptureFormat(to))
	clip.Append(src)
	if clip.Len() == 0 {
		return nil, ErrEmptyClip
	}
	return clip, nil
}

func rescale(s beep.Streamer, k float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		for i := range samples[:n] {
			samples[i][0] *= k
			samples[i][1] *= k
		}
		return n, ok
	})
}

func framesStreamer(frames [][2]float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if len(frames) == 0 {
			return 0, false
		}
		n := copy(samples, frames)
		frames = frames[n:]
		return n, true
	})
}

// floatToBytes converts stereo float frames to int16 LE bytes for the pipe backend
// Applies soft limiting before hard clip
func floatToBytes(in [][2]float64, out []byte) {
	for i, frame := range in {
		for ch, v := range frame {
			if v > 0.8 {
				v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
			} else if v < -0.8 {
				v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
			}
			idx := i*constant.AudioBytesPerFrame + ch*2
			binary.LittleEndian.PutUint16(out[idx:], uint16(toInt16(v)))
		}
	}
}
