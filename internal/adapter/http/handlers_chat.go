package adapthttp

import (
	"errors"
	"io"
	"net/http"

	"mathtutor/internal/app"
	"mathtutor/internal/domain"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	entries, err := s.tutor.Transcript(r.Context(), session.Token)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []domain.ChatEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": session.Username, "entries": entries})
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if err := s.tutor.ClearChat(r.Context(), session.Token); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAskText(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	var req struct {
		Question string `json:"question"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entries, err := s.tutor.AskText(r.Context(), session.Token, req.Question)
	s.writeAsk(w, entries, err)
}

func (s *Server) handleAskVoice(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	filename, audio, ok := readUpload(w, r, "audio")
	if !ok {
		return
	}

	entries, err := s.tutor.AskVoice(r.Context(), session.Token, filename, audio)
	s.writeAsk(w, entries, err)
}

func (s *Server) handleAskImage(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	_, image, ok := readUpload(w, r, "image")
	if !ok {
		return
	}

	entries, err := s.tutor.AskImage(r.Context(), session.Token, image)
	s.writeAsk(w, entries, err)
}

func (s *Server) writeAsk(w http.ResponseWriter, entries []domain.ChatEntry, err error) {
	switch {
	case errors.Is(err, app.ErrEmptyQuestion), errors.Is(err, app.ErrEmptyUpload):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
	}
}

// readUpload pulls one multipart file field out of the request, enforcing
// the upload cap. It writes the error response itself when it returns !ok.
func readUpload(w http.ResponseWriter, r *http.Request, field string) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("please upload a file"))
		return "", nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("please upload a file"))
		return "", nil, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return "", nil, false
	}
	return header.Filename, data, true
}
