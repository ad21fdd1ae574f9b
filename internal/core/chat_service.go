package core

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"bitsafe.io/advisor-api/internal/store"
)

// Recommendation lists are fixed per outcome; they are not derived from the
// model's answer.
var (
	fallbackRecommendations = []string{
		"Use a hardware wallet (40% premium reduction)",
		"Enable 2FA on all accounts (15% reduction)",
		"Regular security audits (10% reduction)",
	}
	generatedRecommendations = []string{
		"Hardware wallet usage can reduce premiums by up to 40%",
		"Multi-factor authentication saves 15% on premiums",
		"Cold storage practices offer additional discounts",
		"Regular portfolio rebalancing towards stablecoins reduces risk",
	}
)

const advisorPromptTemplate = `You are a crypto insurance AI advisor helping users reduce their insurance premiums.
The user %s is asking: %s

Provide helpful advice about:
1. Security best practices that can reduce premium costs
2. Risk assessment for their crypto holdings
3. Insurance coverage recommendations
4. Specific actionable steps to lower their risk profile

Keep responses concise and actionable. Focus on premium reduction strategies.`

// ChatStore is the persistence the chat flow needs.
type ChatStore interface {
	CreateChatTurn(ctx context.Context, turn *store.ChatTurn) error
	CreateAiReply(ctx context.Context, reply *store.AiReply) error
}

type ChatResult struct {
	Response        string   `json:"response"`
	Recommendations []string `json:"recommendations"`
}

type ChatService struct {
	dbStore   ChatStore
	generator Generator // nil when no credential is configured
	opts      GenerateOptions
}

func NewChatService(db ChatStore, generator Generator) *ChatService {
	return &ChatService{
		dbStore:   db,
		generator: generator,
		opts:      DefaultGenerateOptions(),
	}
}

// Respond records the user's message, asks the model for premium-reduction
// advice and records the answer. Upstream failures fall back to a templated
// answer; store failures come back as *ProcessingError.
func (s *ChatService) Respond(ctx context.Context, message string, user store.UserInfo) (*ChatResult, error) {
	if s.generator == nil {
		return nil, ErrConfiguration
	}

	// The turn and the reply are written independently; a failure in between
	// leaves a turn without a reply.
	turn := &store.ChatTurn{UserInfo: user, Message: message}
	if err := s.dbStore.CreateChatTurn(ctx, turn); err != nil {
		return nil, &ProcessingError{Err: fmt.Errorf("store chat message: %w", err)}
	}

	result := s.answer(ctx, message, user)

	reply := &store.AiReply{
		UserID:          turn.ID,
		Response:        result.Response,
		Recommendations: result.Recommendations,
	}
	if err := s.dbStore.CreateAiReply(ctx, reply); err != nil {
		return nil, &ProcessingError{Err: fmt.Errorf("store ai response: %w", err)}
	}

	return result, nil
}

func (s *ChatService) answer(ctx context.Context, message string, user store.UserInfo) *ChatResult {
	text, err := s.generator.Generate(ctx, BuildPrompt(user.Name, message), s.opts)
	if err != nil {
		slog.Warn("inference call failed, using fallback answer", "user", user.Name, "err", err)
		return &ChatResult{
			Response:        FallbackResponse(user.Name, message),
			Recommendations: slices.Clone(fallbackRecommendations),
		}
	}
	return &ChatResult{
		Response:        text,
		Recommendations: slices.Clone(generatedRecommendations),
	}
}

func BuildPrompt(name, message string) string {
	return fmt.Sprintf(advisorPromptTemplate, name, message)
}

func FallbackResponse(name, message string) string {
	return fmt.Sprintf("Hello %s! I'm here to help you reduce your crypto insurance premiums. "+
		"Based on your question about '%s', I recommend focusing on improving your security setup. "+
		"Would you like specific advice on hardware wallets, 2FA setup, or DeFi risk management?", name, message)
}
