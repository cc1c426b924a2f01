package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// GeminiService relays chat requests to the Gemini REST API.
type GeminiService struct {
	apiKey  string
	model   string
	baseURL string
}

func NewGeminiService(apiKey, model, baseURL string) *GeminiService {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	return &GeminiService{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// models returns the configured model plus a stable fallback.
func (s *GeminiService) models() []string {
	if s.model == "" || s.model == "gemini-2.0-flash" {
		return []string{"gemini-2.0-flash"}
	}
	return []string{s.model, "gemini-2.0-flash"}
}

func (s *GeminiService) SendChat(ctx context.Context, history []ChatMessage) (string, error) {
	body, err := buildPayload(history, 1024)
	if err != nil {
		return "", err
	}

	tried := make(map[string]error)
	for _, m := range s.models() {
		text, err := s.callGenerateContent(ctx, m, body)
		if err != nil && isRetriable(err) {
			sleepWithContext(ctx, 2*time.Second)
			text, err = s.callGenerateContent(ctx, m, body)
		}
		if err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text), nil
		}
		if err != nil {
			tried[m] = err
			log.Printf("[gemini] model %s failed: %v", m, err)
		}
	}
	return "", triedError("all gemini models failed", tried)
}

func (s *GeminiService) StreamChat(ctx context.Context, history []ChatMessage, onDelta func(string)) (string, error) {
	body, err := buildPayload(history, 2048)
	if err != nil {
		return "", err
	}

	// once a fragment has reached the client, a retry or model fallback
	// would replay it; from that point a failure is final
	var delivered bool
	emit := func(chunk string) {
		delivered = true
		if onDelta != nil {
			onDelta(chunk)
		}
	}

	tried := make(map[string]error)
	for _, m := range s.models() {
		text, err := s.callStreamGenerateContent(ctx, m, body, emit)
		if err != nil && isRetriable(err) && !delivered {
			sleepWithContext(ctx, 2*time.Second)
			text, err = s.callStreamGenerateContent(ctx, m, body, emit)
		}
		if err == nil {
			if strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text), nil
			}
			// silent success: stream ended with no parts, retry single-shot
			if full, gerr := s.callGenerateContent(ctx, m, body); gerr == nil && strings.TrimSpace(full) != "" {
				emit(full)
				return strings.TrimSpace(full), nil
			}
		}
		if err != nil {
			log.Printf("[gemini] stream model %s failed: %v", m, err)
			if delivered {
				return text, err
			}
			tried[m] = err
		}
	}
	return "", triedError("all gemini stream models failed", tried)
}

// buildPayload maps history turns into the generateContent request shape.
// Assistant turns become "model"; anything else is treated as "user".
func buildPayload(history []ChatMessage, maxTokens int) ([]byte, error) {
	contents := make([]any, 0, len(history))
	for _, m := range history {
		role := "user"
		if strings.EqualFold(strings.TrimSpace(m.Role), "assistant") {
			role = "model"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []any{map[string]any{"text": m.Content}},
		})
	}
	reqBody := map[string]any{
		"systemInstruction": map[string]any{
			"parts": []any{map[string]any{"text": systemInstruction}},
		},
		"contents": contents,
		"generationConfig": map[string]any{
			"temperature":     0.6,
			"maxOutputTokens": maxTokens,
			"topK":            40,
			"topP":            0.9,
		},
	}
	return json.Marshal(reqBody)
}

func (s *GeminiService) callGenerateContent(ctx context.Context, model string, body []byte) (string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, model, s.apiKey)
	log.Printf("[gemini] using model %s", model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBytes)))
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return "", fmt.Errorf("unexpected response body: %s", strings.TrimSpace(string(respBytes)))
	}
	if txt := candidateText(parsed); txt != "" {
		return txt, nil
	}
	return "", nil
}

func (s *GeminiService) callStreamGenerateContent(ctx context.Context, model string, body []byte, onDelta func(string)) (string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?alt=sse&key=%s", s.baseURL, model, s.apiKey)
	log.Printf("[gemini] streaming model %s", model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	full := strings.Builder{}
	scanner := bufio.NewScanner(resp.Body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "data:") {
			line = strings.TrimSpace(line[5:])
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		if txt := candidateText(obj); txt != "" {
			full.WriteString(txt)
			if onDelta != nil {
				onDelta(txt)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("stream read error: %w", err)
	}
	return full.String(), nil
}

// candidateText pulls the first non-empty part text out of a generateContent
// response chunk.
func candidateText(parsed map[string]any) string {
	cands, ok := parsed["candidates"].([]any)
	if !ok || len(cands) == 0 {
		return ""
	}
	first, ok := cands[0].(map[string]any)
	if !ok {
		return ""
	}
	content, ok := first["content"].(map[string]any)
	if !ok {
		return ""
	}
	parts, ok := content["parts"].([]any)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if pm, ok := p.(map[string]any); ok {
			if txt, ok := pm["text"].(string); ok {
				b.WriteString(txt)
			}
		}
	}
	return b.String()
}

func triedError(prefix string, tried map[string]error) error {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(": ")
	first := true
	for m, e := range tried {
		if !first {
			b.WriteString("; ")
		}
		first = false
		fmt.Fprintf(&b, "%s -> %v", m, e)
	}
	return errors.New(b.String())
}

func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	e := strings.ToLower(err.Error())
	if strings.Contains(e, "status 503") || strings.Contains(e, "unavailable") {
		return true
	}
	if strings.Contains(e, "status 429") || strings.Contains(e, "resource_exhausted") || strings.Contains(e, "quota") {
		return true
	}
	return false
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
