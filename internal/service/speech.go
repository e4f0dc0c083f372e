package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

// MaxSpeechChunk is the longest text the translate TTS endpoint accepts in
// one request.
const MaxSpeechChunk = 100

// SpeechSynthesizer renders text as MP3 audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// SpeechConfig configures the TTS endpoint.
type SpeechConfig struct {
	BaseURL string
	Lang    string
	Timeout time.Duration
}

// SpeechService fetches speech from the Google Translate TTS endpoint, the
// same one gTTS talks to.
type SpeechService struct {
	client  *resty.Client
	baseURL string
	lang    string
}

// NewSpeechService creates a speech service.
func NewSpeechService(cfg *SpeechConfig) *SpeechService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	lang := cfg.Lang
	if lang == "" {
		lang = "en"
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0").
		SetHeader("Referer", "http://translate.google.com/")
	return &SpeechService{
		client:  client,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		lang:    lang,
	}
}

// Synthesize converts text to MP3. Long text is fetched chunk by chunk and
// the MP3 frames are concatenated.
func (s *SpeechService) Synthesize(ctx context.Context, text string) ([]byte, error) {
	chunks := SplitSpeechText(text, MaxSpeechChunk)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no text to synthesize")
	}

	var audio bytes.Buffer
	for idx, chunk := range chunks {
		httpResp, err := s.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"ie":      "UTF-8",
				"client":  "tw-ob",
				"tl":      s.lang,
				"q":       chunk,
				"total":   strconv.Itoa(len(chunks)),
				"idx":     strconv.Itoa(idx),
				"textlen": strconv.Itoa(utf8.RuneCountInString(chunk)),
			}).
			Get(s.baseURL + "/translate_tts")
		if err != nil {
			return nil, fmt.Errorf("failed to call TTS API: %w", err)
		}
		if !httpResp.IsSuccess() {
			return nil, fmt.Errorf("TTS API returned error: HTTP %d", httpResp.StatusCode())
		}
		audio.Write(httpResp.Body())
	}
	return audio.Bytes(), nil
}

// SplitSpeechText splits text into chunks of at most limit runes, breaking
// on whitespace. A single word longer than limit is cut hard.
func SplitSpeechText(text string, limit int) []string {
	var (
		chunks  []string
		current strings.Builder
		length  int
	)
	flush := func() {
		if length > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			length = 0
		}
	}

	for _, word := range strings.Fields(text) {
		for utf8.RuneCountInString(word) > limit {
			flush()
			runes := []rune(word)
			chunks = append(chunks, string(runes[:limit]))
			word = string(runes[limit:])
		}
		wordLen := utf8.RuneCountInString(word)
		if length > 0 && length+1+wordLen > limit {
			flush()
		}
		if length > 0 {
			current.WriteByte(' ')
			length++
		}
		current.WriteString(word)
		length += wordLen
	}
	flush()
	return chunks
}
