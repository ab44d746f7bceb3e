package app

import (
	"context"
	"errors"
	"strings"

	"mathtutor/internal/domain"
)

// systemPrompt is the fixed instruction sent with every question.
const systemPrompt = "You are an expert AI math tutor. " +
	"Answer the user's math question step by step, clearly and concisely. " +
	"If the question is not math-related, politely ask for a math query."

var (
	// ErrEmptyQuestion indicates a text ask with no question in it.
	ErrEmptyQuestion = errors.New("please enter a question")
	// ErrEmptyUpload indicates a voice or image ask without a file.
	ErrEmptyUpload = errors.New("please upload a file")
)

// TutorService runs the three question pipelines (text, voice, image) and
// owns the transcript flow: each ask appends a user turn followed by the
// AI turn. Extraction and generation failures degrade to display text
// rather than propagating; the pipelines only fail on validation or
// session-store errors.
type TutorService struct {
	gen      domain.AnswerGenerator
	images   domain.ImageRecognizer
	speech   domain.SpeechTranscriber
	sessions domain.SessionStore
}

// NewTutorService creates a TutorService wired to the given backends.
func NewTutorService(gen domain.AnswerGenerator, images domain.ImageRecognizer, speech domain.SpeechTranscriber, sessions domain.SessionStore) *TutorService {
	return &TutorService{
		gen:      gen,
		images:   images,
		speech:   speech,
		sessions: sessions,
	}
}

// AskText answers a typed question. The literal trimmed text is both the
// transcript entry and the prompt.
func (s *TutorService) AskText(ctx context.Context, token, question string) ([]domain.ChatEntry, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, ErrEmptyQuestion
	}
	return s.exchange(ctx, token, q, q)
}

// AskVoice transcribes an uploaded audio clip and answers the transcription.
// A failed transcription is rendered as display text and still forwarded to
// the model as the question.
func (s *TutorService) AskVoice(ctx context.Context, token, filename string, audio []byte) ([]domain.ChatEntry, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyUpload
	}

	text, err := s.speech.TranscribeAudio(ctx, filename, audio)
	if err != nil {
		text = "Error recognizing speech: " + err.Error()
	}
	return s.exchange(ctx, token, "[Voice] "+text, text)
}

// AskImage runs OCR over an uploaded image and answers the recognized text.
// A failed extraction is rendered as display text and still forwarded to
// the model as the question.
func (s *TutorService) AskImage(ctx context.Context, token string, image []byte) ([]domain.ChatEntry, error) {
	if len(image) == 0 {
		return nil, ErrEmptyUpload
	}

	text, err := s.images.RecognizeImage(ctx, image)
	if err != nil {
		text = "Error extracting text: " + err.Error()
	}
	return s.exchange(ctx, token, "[Image] "+text, text)
}

// Transcript returns the session's chat history in order.
func (s *TutorService) Transcript(ctx context.Context, token string) ([]domain.ChatEntry, error) {
	return s.sessions.Transcript(ctx, token)
}

// ClearChat empties the session transcript unconditionally.
func (s *TutorService) ClearChat(ctx context.Context, token string) error {
	return s.sessions.ClearTranscript(ctx, token)
}

// exchange appends the user turn, generates the reply, and appends the AI
// turn, returning both entries in order.
func (s *TutorService) exchange(ctx context.Context, token, userText, prompt string) ([]domain.ChatEntry, error) {
	userEntry := domain.ChatEntry{Role: domain.RoleUser, Text: userText}
	if err := s.sessions.AppendEntry(ctx, token, userEntry); err != nil {
		return nil, err
	}

	aiEntry := domain.ChatEntry{Role: domain.RoleAI, Text: s.answer(ctx, prompt)}
	if err := s.sessions.AppendEntry(ctx, token, aiEntry); err != nil {
		return nil, err
	}

	return []domain.ChatEntry{userEntry, aiEntry}, nil
}

// answer asks the model and flattens every failure mode to display text.
func (s *TutorService) answer(ctx context.Context, prompt string) string {
	reply, err := s.gen.Complete(ctx, systemPrompt, prompt)
	switch {
	case errors.Is(err, domain.ErrEmptyCompletion):
		return "Error: No response from model."
	case err != nil:
		return "Error: " + err.Error()
	}
	return strings.TrimSpace(reply)
}
