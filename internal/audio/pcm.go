package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

const pcmScale = 32768

// FrameToPCM16 scales floating-point samples in [-1, 1] to 16-bit signed
// integers. Out-of-range input is clamped to the int16 range rather than
// wrapped, so a hot microphone distorts instead of crackling.
func FrameToPCM16(frame []float32) []int16 {
	pcm := make([]int16, len(frame))
	for i, s := range frame {
		v := int32(s * pcmScale)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		pcm[i] = int16(v)
	}
	return pcm
}

// PCM16Bytes serialises samples as little-endian bytes.
func PCM16Bytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// EncodeFrame converts one captured frame to 16-bit little-endian PCM bytes.
func EncodeFrame(frame []float32) []byte {
	return PCM16Bytes(FrameToPCM16(frame))
}

// Decode reinterprets a byte buffer as 16-bit little-endian PCM,
// de-interleaves it by channel and rescales to floating point.
func Decode(data []byte, sampleRate, channels int) (*Buffer, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("%w: channel count %d", ErrMalformedPacket, channels)
	}
	stride := channels * 2
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d (channels*2)",
			ErrMalformedPacket, len(data), stride)
	}

	samples := len(data) / stride
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, samples)
	}

	for i := 0; i < samples; i++ {
		for ch := 0; ch < channels; ch++ {
			v := int16(binary.LittleEndian.Uint16(data[(i*channels+ch)*2:]))
			out[ch][i] = float32(v) / pcmScale
		}
	}

	return &Buffer{Data: out, SampleRate: sampleRate}, nil
}

// EncodeBase64 transcodes PCM bytes to base64 text for transport.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 transcodes base64 text back to PCM bytes.
func DecodeBase64(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return data, nil
}

// EncodePacket encodes one capture frame as a transport-ready realtime packet.
func EncodePacket(frame []float32, sampleRate int) Packet {
	return Packet{
		Data:     EncodeBase64(EncodeFrame(frame)),
		MimeType: MimeType(sampleRate),
	}
}
