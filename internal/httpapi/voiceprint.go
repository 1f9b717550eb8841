package httpapi

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/kestrelworks/kestrel/internal/audio"
	"github.com/kestrelworks/kestrel/internal/biometrics"
)

// VoiceID adapts the voiceprint recognizer to the HTTP layer. Audio arrives
// as base64 16-bit little-endian PCM, optionally wrapped in a WAV header.
type VoiceID struct {
	rec *biometrics.Recognizer
}

func NewVoiceID(rec *biometrics.Recognizer) *VoiceID {
	return &VoiceID{rec: rec}
}

type voiceprintRequest struct {
	Name        string `json:"name,omitempty"`
	PCM16Base64 string `json:"pcm16_base64"`
	SampleRate  int    `json:"sample_rate,omitempty"`
	Transcript  string `json:"transcript,omitempty"`
}

type voiceprintResponse struct {
	Name     string   `json:"name,omitempty"`
	Match    bool     `json:"match,omitempty"`
	Score    float64  `json:"score,omitempty"`
	Enrolled []string `json:"enrolled,omitempty"`
}

func (req voiceprintRequest) samples() ([]float64, error) {
	raw, err := base64.StdEncoding.DecodeString(req.PCM16Base64)
	if err != nil {
		return nil, err
	}
	pcm, err := audio.StripWAVHeader(raw)
	if err != nil {
		return nil, err
	}
	return audio.SamplesPCM16LE(pcm), nil
}

func (s *Server) handleVoiceEnroll(w http.ResponseWriter, r *http.Request) {
	var req voiceprintRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	samples, err := req.samples()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_audio", err.Error())
		return
	}
	if err := s.voiceID.rec.Register(req.Name, samples); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "enroll_failed", err.Error())
		return
	}
	s.log.Info().Str("speaker", req.Name).Msg("voiceprint enrolled")
	respondJSON(w, http.StatusCreated, voiceprintResponse{
		Name:     req.Name,
		Enrolled: s.voiceID.rec.Enrolled(),
	})
}

func (s *Server) handleVoiceVerify(w http.ResponseWriter, r *http.Request) {
	var req voiceprintRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}
	samples, err := req.samples()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_audio", err.Error())
		return
	}
	match, score, err := s.voiceID.rec.Verify(req.Name, samples)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "verify_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, voiceprintResponse{Name: req.Name, Match: match, Score: score})
}

func (s *Server) handleVoiceIdentify(w http.ResponseWriter, r *http.Request) {
	var req voiceprintRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	samples, err := req.samples()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_audio", err.Error())
		return
	}
	name, score, err := s.voiceID.rec.Identify(samples)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "identify_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, voiceprintResponse{Name: name, Match: name != "", Score: score})
}

func (s *Server) handleVoiceAccent(w http.ResponseWriter, r *http.Request) {
	var req voiceprintRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	samples, err := req.samples()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_audio", err.Error())
		return
	}
	info, err := biometrics.DetectAccent(samples, req.Transcript)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "accent_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, info)
}
