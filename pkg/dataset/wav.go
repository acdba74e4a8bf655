package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Audio is a decoded waveform: per-channel sample slices in [-1, 1] plus
// the sample rate. Channel slices always share one length.
type Audio struct {
	Rate     int
	Channels [][]float32
}

// Samples returns the per-channel sample count.
func (a *Audio) Samples() int {
	if len(a.Channels) == 0 {
		return 0
	}
	return len(a.Channels[0])
}

const (
	wavFormatPCM        = 1
	wavFormatIEEEFloat  = 3
	wavFormatExtensible = 0xFFFE
)

// ReadWAV decodes a RIFF/WAVE file. 16-bit PCM and 32-bit IEEE float
// encodings are supported; interleaved frames are split per channel.
func ReadWAV(path string) (*Audio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("dataset: %s: not a RIFF/WAVE file", path)
	}

	le := binary.LittleEndian
	var audioFormat, numChannels, bitsPerSample uint16
	var sampleRate uint32

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(le.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || body+chunkSize > len(data) {
				return nil, fmt.Errorf("dataset: %s: invalid fmt chunk", path)
			}
			audioFormat = le.Uint16(data[body : body+2])
			numChannels = le.Uint16(data[body+2 : body+4])
			sampleRate = le.Uint32(data[body+4 : body+8])
			bitsPerSample = le.Uint16(data[body+14 : body+16])
			// WAVE_FORMAT_EXTENSIBLE carries the real format in the
			// SubFormat GUID.
			if audioFormat == wavFormatExtensible && chunkSize >= 40 {
				sub := le.Uint16(data[body+24 : body+26])
				if sub == wavFormatPCM || sub == wavFormatIEEEFloat {
					audioFormat = sub
				}
			}

		case "data":
			if numChannels == 0 {
				return nil, fmt.Errorf("dataset: %s: data chunk before fmt", path)
			}
			if body+chunkSize > len(data) {
				chunkSize = len(data) - body
			}
			samples, err := decodeSamples(data[body:body+chunkSize], audioFormat, bitsPerSample)
			if err != nil {
				return nil, fmt.Errorf("dataset: %s: %w", path, err)
			}
			C := int(numChannels)
			T := len(samples) / C
			a := &Audio{Rate: int(sampleRate), Channels: make([][]float32, C)}
			for c := 0; c < C; c++ {
				ch := make([]float32, T)
				for t := 0; t < T; t++ {
					ch[t] = samples[t*C+c]
				}
				a.Channels[c] = ch
			}
			return a, nil
		}

		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++ // RIFF chunks are word-aligned
		}
	}
	return nil, fmt.Errorf("dataset: %s: no data chunk", path)
}

func decodeSamples(pcm []byte, format, bits uint16) ([]float32, error) {
	le := binary.LittleEndian
	switch {
	case format == wavFormatPCM && bits == 16:
		samples := make([]float32, len(pcm)/2)
		for i := range samples {
			samples[i] = float32(int16(le.Uint16(pcm[i*2:]))) / 32768.0
		}
		return samples, nil
	case format == wavFormatIEEEFloat && bits == 32:
		samples := make([]float32, len(pcm)/4)
		for i := range samples {
			samples[i] = math.Float32frombits(le.Uint32(pcm[i*4:]))
		}
		return samples, nil
	default:
		return nil, fmt.Errorf("unsupported wav encoding (format %d, %d bits)", format, bits)
	}
}

// WriteWAV encodes a as 16-bit PCM and writes it to path. Samples outside
// [-1, 1] clip to the int16 range.
func WriteWAV(path string, a *Audio) error {
	C := len(a.Channels)
	if C == 0 {
		return fmt.Errorf("dataset: write %s: no channels", path)
	}
	T := a.Samples()
	for c, ch := range a.Channels {
		if len(ch) != T {
			return fmt.Errorf("dataset: write %s: channel %d has %d samples, want %d", path, c, len(ch), T)
		}
	}

	le := binary.LittleEndian
	dataSize := uint32(T * C * 2)
	buf := make([]byte, 44+int(dataSize))

	copy(buf[0:4], "RIFF")
	le.PutUint32(buf[4:8], 36+dataSize)
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	le.PutUint32(buf[16:20], 16)
	le.PutUint16(buf[20:22], wavFormatPCM)
	le.PutUint16(buf[22:24], uint16(C))
	le.PutUint32(buf[24:28], uint32(a.Rate))
	le.PutUint32(buf[28:32], uint32(a.Rate*C*2))
	le.PutUint16(buf[32:34], uint16(C*2))
	le.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	le.PutUint32(buf[40:44], dataSize)

	for t := 0; t < T; t++ {
		for c := 0; c < C; c++ {
			le.PutUint16(buf[44+(t*C+c)*2:], uint16(pcm16(a.Channels[c][t])))
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("dataset: write %s: %w", path, err)
	}
	return nil
}

func pcm16(sample float32) int16 {
	scaled := float64(sample) * 32768.0
	if scaled > 32767.0 {
		return 32767
	}
	if scaled < -32768.0 {
		return -32768
	}
	return int16(math.RoundToEven(scaled))
}
