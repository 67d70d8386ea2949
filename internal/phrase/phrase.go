// Package phrase turns a raw voice utterance into a game action using
// keyword heuristics. It does not try to understand language; it only
// applies fixed phrase lists in a fixed order.
package phrase

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"contexto/internal/types"
)

// systemPhrases are navigation phrases that are never a guess.
// Order matters for the substring pass: first match wins.
var systemPhrases = []string{
	"что ты умеешь",
	"помощь",
	"выход",
	"закрыть",
	"стоп",
	"спасибо",
	"да",
	"нет",
	"отмена",
	"правила",
	"подсказка",
	"новая игра",
	"сдаюсь",
	"начать игру",
}

// wordAnchors introduce a guessed word. Multi-word anchors must come before
// any shorter anchor they contain, otherwise the remainder is cut wrong.
var wordAnchors = []string{
	"проверь слово",
	"попробуй слово",
	"угадай слово",
	"давай слово",
	"мое слово",
	"моё слово",
	"это слово",
	"может быть",
	"я думаю",
	"слово",
	"угадай",
	"попробуй",
	"проверь",
	"наверное",
	"может",
}

// intentPhrases map system phrases to game intents. Phrases not listed here
// (help, stop, thanks, ...) produce no action.
var intentPhrases = []struct {
	phrase string
	action string
}{
	{"новая игра", types.ActionNewGame},
	{"начать игру", types.ActionNewGame},
	{"сдаюсь", types.ActionGiveUp},
	{"подсказка", types.ActionGetHint},
}

func lower(s string) string {
	return cases.Lower(language.Russian).String(s)
}

// IsSystemPhrase reports whether text is navigation chatter rather than a guess:
// empty, an exact or contained system phrase, or two characters or fewer.
func IsSystemPhrase(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	lowered := lower(trimmed)
	for _, p := range systemPhrases {
		if lowered == p {
			return true
		}
	}
	for _, p := range systemPhrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return utf8.RuneCountInString(trimmed) <= 2
}

// ExtractWordFromPhrase returns the text following the first anchor from
// wordAnchors found in text. ok is false when no anchor matches or nothing
// follows it; an anchor with an empty remainder yields ("", false), never an
// empty word with ok set.
func ExtractWordFromPhrase(text string) (word string, ok bool) {
	lowered := lower(text)
	if strings.TrimSpace(lowered) == "" {
		return "", false
	}
	for _, anchor := range wordAnchors {
		i := strings.Index(lowered, anchor)
		if i < 0 {
			continue
		}
		word = strings.TrimSpace(lowered[i+len(anchor):])
		return word, word != ""
	}
	return "", false
}

// Classify maps an utterance to an action. System phrases map to their intent
// when they carry one; other utterances become a guess when a word can be
// extracted or the utterance is a single word.
func Classify(text string) (types.Action, bool) {
	lowered := lower(strings.TrimSpace(text))
	if IsSystemPhrase(text) {
		for _, ip := range intentPhrases {
			if strings.Contains(lowered, ip.phrase) {
				return types.Action{Type: ip.action}, true
			}
		}
		return types.Action{}, false
	}
	if word, ok := ExtractWordFromPhrase(lowered); ok {
		return types.Action{Type: types.ActionGuessWord, Word: word}, true
	}
	if !strings.ContainsAny(lowered, " \t") {
		return types.Action{Type: types.ActionGuessWord, Word: lowered}, true
	}
	return types.Action{}, false
}
