package services

import (
	"context"
	"strings"
)

// fallbackPrefix matches the deployed reply shape so clients cannot tell the
// fallback apart from a real provider response.
const fallbackPrefix = "I'm a simulated AI tutor (Gemini key missing). In a real deployment, I would explain: "

// LocalTutorService is the provider used when no Gemini credential is
// configured. Replies are deterministic: the latest user message echoed
// behind a fixed prefix, with streaming chunked from the same text.
type LocalTutorService struct{}

func NewLocalTutorService() *LocalTutorService {
	return &LocalTutorService{}
}

func (s *LocalTutorService) SendChat(ctx context.Context, history []ChatMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var last string
	for i := len(history) - 1; i >= 0; i-- {
		if strings.EqualFold(history[i].Role, "user") {
			last = strings.TrimSpace(history[i].Content)
			break
		}
	}
	if last == "" {
		last = "your question"
	}
	return fallbackPrefix + last, nil
}

func (s *LocalTutorService) StreamChat(ctx context.Context, history []ChatMessage, onDelta func(string)) (string, error) {
	full, err := s.SendChat(ctx, history)
	if err != nil {
		return "", err
	}
	// fixed chunk size keeps the stream deterministic and byte-identical to
	// the single-shot reply once concatenated
	const step = 24
	for i := 0; i < len(full); i += step {
		if err := ctx.Err(); err != nil {
			return full[:i], err
		}
		end := i + step
		if end > len(full) {
			end = len(full)
		}
		if onDelta != nil {
			onDelta(full[i:end])
		}
	}
	return full, nil
}
