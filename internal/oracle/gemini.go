package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"google.golang.org/genai"

	"contexto/internal/game"
	"contexto/internal/types"
)

const (
	defaultGeminiRegion = "europe-west1"
	defaultGeminiModel  = "gemini-2.5-flash"
)

const hintPrompt = `Идёт игра в угадывание слова по смыслу. Загаданное слово: %q.
Назови одно русское существительное в начальной форме, близкое к нему по смыслу.
Нельзя называть само загаданное слово и слова из этого списка: %s.
Ответь только JSON вида {"word": "<слово>"} без комментариев.`

// GeminiHinter asks Gemini for an associated word and checks it against the
// embedding oracle. Anything unusable falls back to the embedding hinter.
type GeminiHinter struct {
	client    *genai.Client
	modelName string
	oracle    *EmbeddingOracle
	logger    game.Logger
}

// NewGeminiHinter creates a Vertex AI client using Application Default Credentials.
func NewGeminiHinter(ctx context.Context, projectID, region string, o *EmbeddingOracle, logger game.Logger) (*GeminiHinter, error) {
	if region == "" {
		region = defaultGeminiRegion
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiHinter{client: client, modelName: defaultGeminiModel, oracle: o, logger: logger}, nil
}

// Hint implements game.Hinter. Gemini gets half of the time left on ctx so
// the embedding fallback can still answer within the caller's deadline.
func (g *GeminiHinter) Hint(ctx context.Context, target string, guessed []types.GuessedWord) (types.Hint, error) {
	sctx, cancel := suggestContext(ctx)
	h, err := g.suggest(sctx, target, guessed)
	cancel()
	if err != nil {
		if g.logger != nil {
			g.logger.Printf("[WARN] Gemini hint failed, using embeddings: %v", err)
		}
		return g.oracle.Hint(ctx, target, guessed)
	}
	return h, nil
}

func suggestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Until(deadline)/2)
}

func (g *GeminiHinter) suggest(ctx context.Context, target string, guessed []types.GuessedWord) (types.Hint, error) {
	words := lo.Map(guessed, func(w types.GuessedWord, _ int) string { return w.Text })
	exclude := "(пусто)"
	if len(words) > 0 {
		exclude = strings.Join(words, ", ")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName,
		[]*genai.Content{{
			Role:  "user",
			Parts: []*genai.Part{{Text: fmt.Sprintf(hintPrompt, target, exclude)}},
		}},
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.7)),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return types.Hint{}, fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return types.Hint{}, fmt.Errorf("empty gemini response")
	}

	var out struct {
		Word string `json:"word"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return types.Hint{}, fmt.Errorf("parse hint JSON: %w (raw response: %s)", err, text)
	}
	word := game.NormalizeWord(out.Word)
	if word == "" || word == target || lo.Contains(words, word) {
		return types.Hint{}, fmt.Errorf("unusable suggestion %q", out.Word)
	}

	rank, err := g.oracle.Rank(ctx, target, word)
	if err != nil {
		return types.Hint{}, err
	}
	if rank < 1 {
		return types.Hint{}, fmt.Errorf("suggestion %q is not in the dictionary", word)
	}
	return types.Hint{Word: word, Rank: rank}, nil
}
