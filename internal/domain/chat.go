package domain

import (
	"context"
	"errors"
)

// Role identifies which side of the conversation produced a chat entry.
type Role string

// The two transcript roles.
const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// ChatEntry is one turn of a session transcript. Entries are append-only;
// the only removal is a full clear.
type ChatEntry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ErrEmptyCompletion indicates the model returned no usable content.
var ErrEmptyCompletion = errors.New("no response from model")

// AnswerGenerator is the port for the hosted chat-completion backend.
type AnswerGenerator interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ImageRecognizer is the port for the OCR backend.
type ImageRecognizer interface {
	RecognizeImage(ctx context.Context, image []byte) (string, error)
}

// SpeechTranscriber is the port for the speech-recognition backend.
type SpeechTranscriber interface {
	TranscribeAudio(ctx context.Context, filename string, audio []byte) (string, error)
}
