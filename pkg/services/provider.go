package services

import "context"

// ChatMessage is one turn of a conversation handed to a provider. Role is
// "user" or "assistant"; the history always ends with the newest user turn.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatProvider is the boundary to the external model. Implementations must
// be safe for concurrent use by multiple request handlers.
type ChatProvider interface {
	// SendChat returns the full assistant reply for the given history.
	SendChat(ctx context.Context, history []ChatMessage) (string, error)
	// StreamChat calls onDelta for each text fragment as it arrives and
	// returns the concatenated reply.
	StreamChat(ctx context.Context, history []ChatMessage, onDelta func(string)) (string, error)
}

// systemInstruction anchors every provider call to the tutor persona. The
// simulation context keeps answers on topic for the comparison pages.
const systemInstruction = `You are a helpful and knowledgeable financial literacy tutor.
Your goal is to explain financial concepts (Traditional Finance vs Blockchain) simply and clearly.
Use analogies. Keep answers concise. Do not give investment advice.
The user is interacting with a simulation app that compares traditional land purchases with blockchain smart contracts.

Context:
- Traditional: involves banks, escrow, government registries, taxes. Slow, centralized.
- Blockchain: involves smart contracts, crypto signing, network validation, immutable records. Fast, decentralized, trustless.`
