package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aura-lectures/backend/config"
	"github.com/aura-lectures/backend/internal/models"
)

const defaultHTTPTimeout = 10 * time.Minute

// Whisper calls the OpenAI audio transcription endpoint.
type Whisper struct {
	cfg        config.TranscriptionConfig
	audio      AudioSource
	httpClient *http.Client
}

// NewWhisper creates a Whisper client reading recordings from audio.
func NewWhisper(cfg config.TranscriptionConfig, audio AudioSource) *Whisper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	return &Whisper{cfg: cfg, audio: audio, httpClient: &http.Client{Timeout: defaultHTTPTimeout}}
}

// WithHTTPClient overrides the HTTP client (tests).
func (w *Whisper) WithHTTPClient(c *http.Client) *Whisper {
	if c != nil {
		w.httpClient = c
	}
	return w
}

// Name implements Transcriber.
func (w *Whisper) Name() string { return "openai" }

// AudioFormat maps a file extension onto the upload format name.
func AudioFormat(filename string) (format, contentType string) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".wav":
		return "wav", "audio/wav"
	case ".m4a":
		return "m4a", "audio/m4a"
	default:
		return "mpeg", "audio/mpeg"
	}
}

type verboseTranscription struct {
	Language string `json:"language"`
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Transcribe uploads the recording and maps the verbose JSON reply onto a transcript.
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (*models.Transcript, error) {
	if strings.TrimSpace(w.cfg.APIKey) == "" {
		return nil, errors.New("transcribe: api key required")
	}
	rc, err := w.audio.Open(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: open audio: %w", err)
	}
	audio, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return nil, fmt.Errorf("transcribe: read audio: %w", err)
	}

	format, contentType := AudioFormat(audioPath)
	body, boundary, err := buildMultipart(w.cfg.Model, "audio."+format, contentType, audio)
	if err != nil {
		return nil, fmt.Errorf("transcribe: build request: %w", err)
	}
	endpoint, err := url.JoinPath(w.cfg.BaseURL, "audio", "transcriptions")
	if err != nil {
		return nil, fmt.Errorf("transcribe: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("transcribe: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.cfg.APIKey)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcribe: http error: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transcribe: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("transcribe: http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var parsed verboseTranscription
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("transcribe: decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("transcribe: api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	return toTranscript(parsed), nil
}

func toTranscript(v verboseTranscription) *models.Transcript {
	t := &models.Transcript{Language: strings.TrimSpace(v.Language)}
	if t.Language == "" {
		t.Language = "en"
	}
	if len(v.Segments) == 0 {
		t.Segments = []models.Segment{{Start: 0, End: 0, Text: strings.TrimSpace(v.Text)}}
		return t
	}
	t.Segments = make([]models.Segment, 0, len(v.Segments))
	for _, s := range v.Segments {
		end := s.End
		if end < s.Start {
			end = s.Start
		}
		t.Segments = append(t.Segments, models.Segment{Start: s.Start, End: end, Text: strings.TrimSpace(s.Text)})
	}
	return t
}

func buildMultipart(model, filename, contentType string, audio []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("model", model); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", err
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.Boundary(), nil
}
