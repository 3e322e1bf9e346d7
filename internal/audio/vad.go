package audio

import (
	"math"

	"github.com/maxhawkins/go-webrtcvad"
)

// WebRTCVAD gates capture frames on voice activity, with an RMS energy
// fallback when the frame shape is unsuitable for the WebRTC detector.
type WebRTCVAD struct {
	vad          *webrtcvad.VAD
	rmsThreshold float64
}

func NewWebRTCVAD() (*WebRTCVAD, error) {
	vad, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}

	// Aggressiveness 0-3; 2 keeps quiet learner speech while dropping room noise
	vad.SetMode(2)

	return &WebRTCVAD{
		vad:          vad,
		rmsThreshold: 500.0,
	}, nil
}

func (v *WebRTCVAD) IsSpeech(pcm []int16, sampleRate int) bool {
	bytes := PCM16Bytes(pcm)

	// WebRTC VAD needs at least a 10ms frame
	if len(bytes) < sampleRate/100*2 {
		return v.rmsIsSpeech(pcm)
	}

	isSpeech, err := v.vad.Process(sampleRate, bytes)
	if err != nil {
		return v.rmsIsSpeech(pcm)
	}
	return isSpeech
}

func (v *WebRTCVAD) rmsIsSpeech(pcm []int16) bool {
	if len(pcm) == 0 {
		return false
	}

	var sum float64
	for _, sample := range pcm {
		sum += float64(sample) * float64(sample)
	}

	rms := math.Sqrt(sum / float64(len(pcm)))
	return rms > v.rmsThreshold
}

func (v *WebRTCVAD) Close() error {
	// The library has no Close method; it frees the underlying C state via
	// a finalizer, so dropping the reference is sufficient.
	v.vad = nil
	return nil
}
