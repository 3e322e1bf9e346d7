package audio

import "errors"

var (
	// ErrMalformedPacket reports a decode-time structural mismatch, such as a
	// byte length that is not a whole number of samples.
	ErrMalformedPacket = errors.New("malformed audio packet")

	// ErrInvalidEncoding reports a base64 transcode failure.
	ErrInvalidEncoding = errors.New("invalid audio encoding")

	// ErrDeviceClosed reports an operation attempted on a torn-down audio
	// device context. Expected during shutdown races; callers swallow it.
	ErrDeviceClosed = errors.New("audio device closed")

	// ErrPermissionDenied reports that microphone or speaker access was
	// refused by the host.
	ErrPermissionDenied = errors.New("audio device permission denied")
)
