package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aura-lectures/backend/config"
	"github.com/aura-lectures/backend/internal/models"
)

const defaultHTTPTimeout = 5 * time.Minute

// ElevenLabs calls the ElevenLabs text-to-speech API.
type ElevenLabs struct {
	cfg        config.SynthesisConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewElevenLabs creates a client.
func NewElevenLabs(cfg config.SynthesisConfig, logger *zap.Logger) *ElevenLabs {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io/v1"
	}
	return &ElevenLabs{cfg: cfg, httpClient: &http.Client{Timeout: defaultHTTPTimeout}, logger: logger}
}

// WithHTTPClient overrides the HTTP client (tests).
func (e *ElevenLabs) WithHTTPClient(c *http.Client) *ElevenLabs {
	if c != nil {
		e.httpClient = c
	}
	return e
}

// Name implements Synthesizer.
func (e *ElevenLabs) Name() string { return "elevenlabs" }

// Synthesize implements Synthesizer. Without a key or a voice the stage is skipped.
// In two-voice mode paragraphs alternate between the primary and the second voice.
func (e *ElevenLabs) Synthesize(ctx context.Context, script string, opts models.SynthesisOptions) ([]byte, bool) {
	voice := strings.TrimSpace(opts.VoiceID)
	if voice == "" {
		voice = e.cfg.VoiceID
	}
	if e.cfg.APIKey == "" || voice == "" {
		e.logger.Info("speech synthesis skipped: no credential or voice configured")
		return nil, false
	}
	if strings.TrimSpace(script) == "" {
		return nil, false
	}

	parts := []string{script}
	voices := []string{voice}
	if opts.TwoVoice && e.cfg.SecondVoiceID != "" && e.cfg.SecondVoiceID != voice {
		parts = paragraphs(script)
		voices = []string{voice, e.cfg.SecondVoiceID}
	}

	var out bytes.Buffer
	for i, part := range parts {
		audio, err := e.speak(ctx, voices[i%len(voices)], part)
		if err != nil {
			e.logger.Warn("speech synthesis failed", zap.Error(err), zap.Int("part", i))
			return nil, false
		}
		out.Write(audio)
	}
	return out.Bytes(), true
}

type ttsRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

func (e *ElevenLabs) speak(ctx context.Context, voiceID, text string) ([]byte, error) {
	endpoint, err := url.JoinPath(e.cfg.BaseURL, "text-to-speech", voiceID)
	if err != nil {
		return nil, fmt.Errorf("tts: build url: %w", err)
	}
	body, err := json.Marshal(ttsRequest{Text: text, ModelID: e.cfg.Model})
	if err != nil {
		return nil, fmt.Errorf("tts: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tts: new request: %w", err)
	}
	req.Header.Set("xi-api-key", e.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts: http error: %w", err)
	}
	defer resp.Body.Close()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tts: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tts: http %d: %s", resp.StatusCode, strings.TrimSpace(string(audio)))
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts: empty audio")
	}
	return audio, nil
}

// paragraphs splits on blank lines and drops empty chunks.
func paragraphs(script string) []string {
	raw := strings.Split(strings.ReplaceAll(script, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{script}
	}
	return out
}
