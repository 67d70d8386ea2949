// Package oracle ranks guesses by semantic closeness using word embeddings,
// picks target words, and suggests hints.
package oracle

import (
	"bufio"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/samber/lo"

	"contexto/internal/game"
	"contexto/internal/types"
)

// MaxRank is the rank given to the least similar known words.
const MaxRank = 1000

// defaultHintRank is aimed at when the player has no guesses yet.
const defaultHintRank = 300

var ErrEmptyDictionary = errors.New("dictionary is empty, cannot pick target word")

// RankForSimilarity bands a similarity in [0, 1] into a rank in [2, MaxRank].
// Rank 1 is reserved for an exact match and never comes from here.
func RankForSimilarity(sim float32) int {
	var rank int
	switch {
	case sim >= 0.9:
		rank = int(2 + (1-sim)*8/0.1)
	case sim >= 0.8:
		rank = int(11 + (0.9-sim)*39/0.1)
	case sim >= 0.7:
		rank = int(51 + (0.8-sim)*99/0.1)
	case sim >= 0.6:
		rank = int(151 + (0.7-sim)*149/0.1)
	case sim >= 0.5:
		rank = int(301 + (0.6-sim)*199/0.1)
	case sim >= 0.4:
		rank = int(501 + (0.5-sim)*199/0.1)
	case sim > 0:
		rank = int(701 + (0.4-sim)*298/0.4)
	default:
		rank = MaxRank
	}
	return min(max(rank, 2), MaxRank)
}

// EmbeddingOracle implements game.RankOracle, game.TargetSelector and game.Hinter.
type EmbeddingOracle struct {
	emb     *Embeddings
	targets []string
}

// NewEmbeddingOracle builds an oracle whose targets are the first maxWords
// embedding words accepted by filter. maxWords <= 0 means no limit.
func NewEmbeddingOracle(emb *Embeddings, filter *Filter, maxWords int) *EmbeddingOracle {
	o := &EmbeddingOracle{emb: emb}
	seen := make(map[string]struct{})
	for _, en := range emb.entries {
		if maxWords > 0 && len(o.targets) >= maxWords {
			break
		}
		if _, dup := seen[en.word]; dup || !filter.Allows(en.word, en.pos) {
			continue
		}
		seen[en.word] = struct{}{}
		o.targets = append(o.targets, en.word)
	}
	return o
}

// ReadDictionary replaces the target list with words read from r, one per
// line. Leading frequency numbers and POS suffixes are stripped; words
// without an embedding or rejected by filter are skipped.
func (o *EmbeddingOracle) ReadDictionary(r io.Reader, filter *Filter, maxWords int) (int, error) {
	var targets []string
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		line = strings.TrimLeft(line, "0123456789. \t")
		word, pos := SplitPOS(line)
		word = game.NormalizeWord(word)
		if word == "" || !o.emb.Has(word) {
			continue
		}
		if pos == "" {
			pos = o.emb.entries[o.emb.byWord[word][0]].pos
		}
		if _, dup := seen[word]; dup || !filter.Allows(word, pos) {
			continue
		}
		seen[word] = struct{}{}
		targets = append(targets, word)
		if maxWords > 0 && len(targets) >= maxWords {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	if len(targets) == 0 {
		return 0, ErrEmptyDictionary
	}
	o.targets = targets
	return len(targets), nil
}

// LoadDictionary reads a dictionary file from disk.
func (o *EmbeddingOracle) LoadDictionary(path string, filter *Filter, maxWords int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()
	return o.ReadDictionary(f, filter, maxWords)
}

// Targets is the number of words a game can be played on.
func (o *EmbeddingOracle) Targets() int { return len(o.targets) }

// Known reports whether the oracle can rank word.
func (o *EmbeddingOracle) Known(word string) bool { return o.emb.Has(word) }

// PickTarget returns a uniformly random dictionary word.
func (o *EmbeddingOracle) PickTarget(ctx context.Context) (string, error) {
	if len(o.targets) == 0 {
		return "", ErrEmptyDictionary
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(o.targets))))
	if err != nil {
		return "", fmt.Errorf("random target index: %w", err)
	}
	return o.targets[n.Int64()], nil
}

// Rank scores candidate against target. Unknown candidates get types.RankNotFound.
func (o *EmbeddingOracle) Rank(_ context.Context, target, candidate string) (int, error) {
	if candidate == target {
		return 1, nil
	}
	if !o.emb.Has(target) {
		return 0, fmt.Errorf("target word %q has no embedding", target)
	}
	sim, ok := o.emb.similarity(candidate, target)
	if !ok {
		return types.RankNotFound, nil
	}
	return RankForSimilarity(sim), nil
}

// Hint finds the dictionary word whose rank is nearest to half the player's
// best rank, skipping words already guessed. No hint is offered once the
// best rank is 2 or less.
func (o *EmbeddingOracle) Hint(ctx context.Context, target string, guessed []types.GuessedWord) (types.Hint, error) {
	best := MaxRank + 1
	for _, g := range guessed {
		if g.HasRank() {
			best = min(best, g.Rank)
		}
	}
	if best <= 2 {
		return types.Hint{}, nil
	}
	want := defaultHintRank
	if best <= MaxRank {
		want = max(best/2, 2)
	}

	used := lo.SliceToMap(guessed, func(g types.GuessedWord) (string, struct{}) { return g.Text, struct{}{} })
	var hint types.Hint
	bestDiff := -1
	for i, w := range o.targets {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return types.Hint{}, err
			}
		}
		if w == target {
			continue
		}
		if _, ok := used[w]; ok {
			continue
		}
		sim, ok := o.emb.similarity(w, target)
		if !ok {
			continue
		}
		rank := RankForSimilarity(sim)
		if rank >= best {
			continue
		}
		diff := rank - want
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			bestDiff = diff
			hint = types.Hint{Word: w, Rank: rank}
		}
	}
	return hint, nil
}
