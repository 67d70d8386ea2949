package oracle

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"

	"contexto/internal/game"
)

// Universal POS tags as used by RusVectores models (word_NOUN, word_VERB, ...).
var posTags = []string{
	"ADJ", "ADP", "ADV", "AUX", "CCONJ", "DET", "INTJ", "NOUN", "NUM",
	"PART", "PRON", "PROPN", "PUNCT", "SCONJ", "SYM", "VERB", "X",
}

// PosAny disables part-of-speech filtering.
const PosAny = "ANY"

// SplitPOS splits "кот_NOUN" into ("кот", "NOUN"). Tokens without a known
// tag come back unchanged with an empty tag.
func SplitPOS(token string) (word, pos string) {
	i := strings.LastIndexByte(token, '_')
	if i <= 0 || i == len(token)-1 {
		return token, ""
	}
	if tag := token[i+1:]; slices.Contains(posTags, tag) {
		return token[:i], tag
	}
	return token, ""
}

// Filter decides which dictionary words may become targets.
type Filter struct {
	MinLength    int
	PreferredPOS []string
	Blacklist    map[string]struct{}
}

// NewFilter normalizes the POS list; unknown tags are dropped and an empty
// result means any tag is accepted.
func NewFilter(minLength int, preferred []string) *Filter {
	pos := lo.Uniq(lo.FilterMap(preferred, func(p string, _ int) (string, bool) {
		p = strings.ToUpper(strings.TrimSpace(p))
		return p, p == PosAny || slices.Contains(posTags, p)
	}))
	if len(pos) == 0 || slices.Contains(pos, PosAny) {
		pos = nil
	}
	return &Filter{MinLength: minLength, PreferredPOS: pos, Blacklist: map[string]struct{}{}}
}

// Allows reports whether word with tag pos passes every rule.
func (f *Filter) Allows(word, pos string) bool {
	if f == nil {
		return true
	}
	if utf8.RuneCountInString(word) < f.MinLength {
		return false
	}
	if _, banned := f.Blacklist[word]; banned {
		return false
	}
	if len(f.PreferredPOS) == 0 {
		return true
	}
	return slices.Contains(f.PreferredPOS, pos)
}

// ReadBlacklist adds one word per line from r. Blank lines and lines starting
// with '#' are skipped, trailing underscores are stripped.
func (f *Filter) ReadBlacklist(r io.Reader) (int, error) {
	added := 0
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word := game.NormalizeWord(strings.TrimRight(line, "_"))
		if word == "" {
			continue
		}
		if _, ok := f.Blacklist[word]; !ok {
			f.Blacklist[word] = struct{}{}
			added++
		}
	}
	return added, sc.Err()
}

// LoadBlacklist reads a blacklist file from disk.
func (f *Filter) LoadBlacklist(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open blacklist: %w", err)
	}
	defer file.Close()
	return f.ReadBlacklist(file)
}
