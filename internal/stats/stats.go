// Package stats derives progress summaries and narration text from a
// session snapshot. Everything here is pure.
package stats

import (
	"fmt"

	"github.com/samber/lo"

	"contexto/internal/types"
)

// Tier is an encouragement level derived from the best rank.
type Tier string

const (
	TierNoGuesses    Tier = "start by naming any word"
	TierVeryClose    Tier = "very close"
	TierRightTrack   Tier = "on the right track"
	TierKeepThinking Tier = "keep thinking"
	TierTryDifferent Tier = "try different words"
)

// Thresholds are the inclusive upper bounds of each tier, applied in
// ascending order with the first match winning.
type Thresholds struct {
	VeryClose    int
	RightTrack   int
	KeepThinking int
}

// DefaultThresholds matches the in-game wording.
var DefaultThresholds = Thresholds{VeryClose: 5, RightTrack: 20, KeepThinking: 50}

// Valid reports whether the bounds are positive and strictly ascending.
func (t Thresholds) Valid() bool {
	return t.VeryClose > 0 && t.VeryClose < t.RightTrack && t.RightTrack < t.KeepThinking
}

// Stats summarizes a session.
type Stats struct {
	GuessCount  int                `json:"guessCount"`
	GameOver    bool               `json:"gameOver"`
	BestRank    int                `json:"bestRank,omitempty"`
	HasBest     bool               `json:"hasBest"`
	ClosestWord *types.GuessedWord `json:"closestWord,omitempty"`
	Tier        Tier               `json:"tier"`
}

// BestRank is the lowest valid rank among the guesses. ok is false when no
// guess has a valid rank.
func BestRank(s *types.Session) (rank int, ok bool) {
	g, ok := ClosestWord(s)
	if !ok {
		return 0, false
	}
	return g.Rank, true
}

// ClosestWord is the first guess holding the best rank in rank order.
func ClosestWord(s *types.Session) (types.GuessedWord, bool) {
	valid := lo.Filter(s.Guesses, func(g types.GuessedWord, _ int) bool { return g.HasRank() })
	if len(valid) == 0 {
		return types.GuessedWord{}, false
	}
	sorted := append([]types.GuessedWord(nil), valid...)
	types.SortGuesses(sorted)
	return sorted[0], true
}

// TierFor maps a best rank to its tier. ok=false means there are no guesses yet.
func TierFor(bestRank int, ok bool, t Thresholds) Tier {
	switch {
	case !ok:
		return TierNoGuesses
	case bestRank <= t.VeryClose:
		return TierVeryClose
	case bestRank <= t.RightTrack:
		return TierRightTrack
	case bestRank <= t.KeepThinking:
		return TierKeepThinking
	default:
		return TierTryDifferent
	}
}

// Compute builds the full summary for s.
func Compute(s *types.Session, t Thresholds) Stats {
	st := Stats{
		GuessCount: len(s.Guesses),
		GameOver:   s.GameOver,
	}
	if closest, ok := ClosestWord(s); ok {
		st.BestRank = closest.Rank
		st.HasBest = true
		st.ClosestWord = &closest
	}
	st.Tier = TierFor(st.BestRank, st.HasBest, t)
	return st
}

var tierMessages = map[Tier]string{
	TierNoGuesses:    "Начните игру, назвав любое слово!",
	TierVeryClose:    "Вы уже очень близко к загадке!",
	TierRightTrack:   "Вы на правильном пути!",
	TierKeepThinking: "Продолжайте думать, вы приближаетесь!",
	TierTryDifferent: "Пробуйте разные слова, чтобы найти верное направление.",
}

// Encouragement is the narration line for a tier.
func Encouragement(tier Tier) string {
	return tierMessages[tier]
}

// StatusMessage is the spoken answer to "how am I doing".
func StatusMessage(s *types.Session, t Thresholds) string {
	st := Compute(s, t)
	if st.GameOver {
		if s.UserGaveUp {
			return fmt.Sprintf("Игра окончена, загаданное слово: '%s'. Скажите 'новая игра', чтобы начать заново.", s.TargetWord)
		}
		return "Вы уже выиграли эту игру! Скажите 'новая игра', чтобы начать заново."
	}
	if st.GuessCount == 0 {
		return "Вы еще не назвали ни одного слова. Чтобы угадать слово, скажите 'слово [ваше слово]'."
	}
	msg := fmt.Sprintf("Вы проверили %d слов. ", st.GuessCount)
	if st.ClosestWord != nil {
		msg += fmt.Sprintf("Ваше ближайшее слово к загаданному: '%s' с рангом %d. ", st.ClosestWord.Text, st.ClosestWord.Rank)
	}
	return msg + Encouragement(st.Tier)
}
