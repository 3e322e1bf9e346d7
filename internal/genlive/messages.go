package genlive

import "encoding/json"

// Wire shapes for the BidiGenerateContent websocket protocol. Only the
// fields this client produces or consumes are modeled.

type clientMessage struct {
	Setup         *setupPayload  `json:"setup,omitempty"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitempty"`
}

type setupPayload struct {
	Model                    string               `json:"model"`
	GenerationConfig         *generationConfig    `json:"generationConfig,omitempty"`
	SystemInstruction        *content             `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *transcriptionConfig `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *transcriptionConfig `json:"outputAudioTranscription,omitempty"`
}

// transcriptionConfig is an empty object; its presence enables transcription.
type transcriptionConfig struct{}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig *voiceConfig `json:"voiceConfig,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig *prebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type realtimeInput struct {
	MediaChunks []inlineData `json:"mediaChunks"`
}

type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
}

type serverContent struct {
	ModelTurn           *content           `json:"modelTurn,omitempty"`
	InputTranscription  *transcriptionText `json:"inputTranscription,omitempty"`
	OutputTranscription *transcriptionText `json:"outputTranscription,omitempty"`
	TurnComplete        bool               `json:"turnComplete,omitempty"`
}

type transcriptionText struct {
	Text string `json:"text"`
}

// ServerMessage is the distilled inbound unit handed to the orchestrator:
// optional base64 model audio, optional transcription partials for either
// side of the conversation, and the turn-complete flag.
type ServerMessage struct {
	AudioData        string // base64 16-bit PCM, empty when absent
	AudioMimeType    string
	InputTranscript  string
	OutputTranscript string
	TurnComplete     bool
}

// Empty reports whether the message carries nothing the orchestrator acts on.
func (m ServerMessage) Empty() bool {
	return m.AudioData == "" && m.InputTranscript == "" &&
		m.OutputTranscript == "" && !m.TurnComplete
}

func parseServerMessage(data []byte) (msg ServerMessage, setupComplete bool, err error) {
	var raw serverMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return ServerMessage{}, false, err
	}

	if raw.SetupComplete != nil {
		return ServerMessage{}, true, nil
	}

	sc := raw.ServerContent
	if sc == nil {
		return ServerMessage{}, false, nil
	}

	msg.TurnComplete = sc.TurnComplete
	if sc.InputTranscription != nil {
		msg.InputTranscript = sc.InputTranscription.Text
	}
	if sc.OutputTranscription != nil {
		msg.OutputTranscript = sc.OutputTranscription.Text
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				msg.AudioData = p.InlineData.Data
				msg.AudioMimeType = p.InlineData.MimeType
				break
			}
		}
	}

	return msg, false, nil
}
