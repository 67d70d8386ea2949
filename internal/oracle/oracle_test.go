package oracle

import (
	"context"
	"errors"
	"strings"
	"testing"

	"contexto/internal/types"
)

// testVec is a tiny 3-dimensional model. кот and кошка point almost the
// same way, собака is close, стол is far, бежать is a verb.
const testVec = `6 3
кот_NOUN 1.0 0.0 0.0
кошка_NOUN 0.99 0.1 0.0
собака_NOUN 0.8 0.6 0.0
стол_NOUN 0.0 0.2 1.0
бежать_VERB 0.5 0.5 0.5
ок_INTJ 0.1 0.1 0.1
`

func loadTestEmbeddings(t *testing.T) *Embeddings {
	t.Helper()
	emb, err := ReadVec(strings.NewReader(testVec), nil)
	if err != nil {
		t.Fatalf("ReadVec: %v", err)
	}
	return emb
}

func TestReadVec(t *testing.T) {
	emb := loadTestEmbeddings(t)
	if emb.Len() != 6 || emb.Dim() != 3 {
		t.Errorf("Len, Dim = %d, %d; want 6, 3", emb.Len(), emb.Dim())
	}
	if !emb.Has("кошка") || emb.Has("кошка_NOUN") {
		t.Error("POS suffix not stripped")
	}
}

func TestReadVecSkipsMalformedLines(t *testing.T) {
	input := "кот_NOUN 1 0 0\nплохо 1 2\nдом_NOUN 0 1 0\nноль_NOUN 0 0 0\n"
	emb, err := ReadVec(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("ReadVec: %v", err)
	}
	if emb.Len() != 2 {
		t.Errorf("Len = %d, want 2", emb.Len())
	}
	if _, err := ReadVec(strings.NewReader(""), nil); err == nil {
		t.Error("empty input accepted")
	}
}

func TestRankForSimilarity(t *testing.T) {
	tests := []struct {
		sim      float32
		min, max int
	}{
		{1.0, 2, 2},
		{0.95, 2, 10},
		{0.85, 11, 50},
		{0.75, 51, 150},
		{0.65, 151, 300},
		{0.55, 301, 500},
		{0.45, 501, 700},
		{0.2, 701, 999},
		{0, MaxRank, MaxRank},
	}
	for _, tt := range tests {
		got := RankForSimilarity(tt.sim)
		if got < tt.min || got > tt.max {
			t.Errorf("RankForSimilarity(%v) = %d, want in [%d, %d]", tt.sim, got, tt.min, tt.max)
		}
	}
	if RankForSimilarity(0.95) > RankForSimilarity(0.5) {
		t.Error("ranks not monotonic in similarity")
	}
}

func TestOracleRank(t *testing.T) {
	o := NewEmbeddingOracle(loadTestEmbeddings(t), nil, 0)
	ctx := context.Background()

	if r, _ := o.Rank(ctx, "кот", "кот"); r != 1 {
		t.Errorf("exact match rank = %d, want 1", r)
	}
	near, _ := o.Rank(ctx, "кот", "кошка")
	mid, _ := o.Rank(ctx, "кот", "собака")
	far, _ := o.Rank(ctx, "кот", "стол")
	if !(near > 1 && near < mid && mid < far) {
		t.Errorf("ranks not ordered: кошка %d, собака %d, стол %d", near, mid, far)
	}
	if r, err := o.Rank(ctx, "кот", "абракадабра"); err != nil || r != types.RankNotFound {
		t.Errorf("unknown word rank = %d, %v", r, err)
	}
	if _, err := o.Rank(ctx, "нет-такого", "кот"); err == nil {
		t.Error("target without embedding accepted")
	}
}

func TestNewEmbeddingOracleFiltersTargets(t *testing.T) {
	emb := loadTestEmbeddings(t)
	f := NewFilter(3, []string{"NOUN"})
	if _, err := f.ReadBlacklist(strings.NewReader("# rude words\nстол_\n")); err != nil {
		t.Fatal(err)
	}
	o := NewEmbeddingOracle(emb, f, 0)
	if o.Targets() != 3 {
		t.Errorf("Targets = %d, want 3 (кот, кошка, собака)", o.Targets())
	}
	if limited := NewEmbeddingOracle(emb, f, 2); limited.Targets() != 2 {
		t.Errorf("limited Targets = %d, want 2", limited.Targets())
	}

	for range 20 {
		w, err := o.PickTarget(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if w == "стол" || w == "бежать" || w == "ок" {
			t.Errorf("PickTarget returned filtered word %q", w)
		}
	}
}

func TestPickTargetEmptyDictionary(t *testing.T) {
	o := NewEmbeddingOracle(loadTestEmbeddings(t), NewFilter(100, nil), 0)
	if _, err := o.PickTarget(context.Background()); !errors.Is(err, ErrEmptyDictionary) {
		t.Errorf("err = %v, want ErrEmptyDictionary", err)
	}
}

func TestReadDictionary(t *testing.T) {
	o := NewEmbeddingOracle(loadTestEmbeddings(t), nil, 0)
	dict := "// top words\n1. Кошка\n2 собака\nнеизвестное\nстол_NOUN\n"
	n, err := o.ReadDictionary(strings.NewReader(dict), NewFilter(3, []string{"NOUN"}), 2)
	if err != nil {
		t.Fatalf("ReadDictionary: %v", err)
	}
	if n != 2 || o.Targets() != 2 {
		t.Errorf("loaded %d targets, want 2", n)
	}

	if _, err := o.ReadDictionary(strings.NewReader("неизвестное\n"), nil, 0); !errors.Is(err, ErrEmptyDictionary) {
		t.Errorf("err = %v, want ErrEmptyDictionary", err)
	}
	if o.Targets() != 2 {
		t.Error("failed load replaced the target list")
	}
}

func TestHint(t *testing.T) {
	o := NewEmbeddingOracle(loadTestEmbeddings(t), nil, 0)
	ctx := context.Background()

	far, _ := o.Rank(ctx, "кот", "стол")
	guessed := []types.GuessedWord{{Text: "стол", Rank: far}}
	h, err := o.Hint(ctx, "кот", guessed)
	if err != nil {
		t.Fatalf("Hint: %v", err)
	}
	if h.Empty() || h.Word == "кот" || h.Word == "стол" || h.Rank >= far {
		t.Errorf("Hint = %+v, want a closer unguessed word", h)
	}

	solved := []types.GuessedWord{{Text: "кошка", Rank: 2}}
	if h, _ := o.Hint(ctx, "кот", solved); !h.Empty() {
		t.Errorf("Hint with best rank 2 = %+v, want empty", h)
	}
}

func TestFilter(t *testing.T) {
	f := NewFilter(3, []string{"noun", "bogus"})
	tests := []struct {
		word, pos string
		want      bool
	}{
		{"кот", "NOUN", true},
		{"ёж", "NOUN", false},
		{"бежать", "VERB", false},
	}
	for _, tt := range tests {
		if got := f.Allows(tt.word, tt.pos); got != tt.want {
			t.Errorf("Allows(%q, %q) = %v, want %v", tt.word, tt.pos, got, tt.want)
		}
	}
	if !NewFilter(0, []string{"ANY"}).Allows("бежать", "VERB") {
		t.Error("ANY should accept every part of speech")
	}
	var nilFilter *Filter
	if !nilFilter.Allows("x", "") {
		t.Error("nil filter should accept everything")
	}
}

func TestSplitPOS(t *testing.T) {
	tests := []struct {
		in, word, pos string
	}{
		{"кот_NOUN", "кот", "NOUN"},
		{"кот", "кот", ""},
		{"нью_йорк", "нью_йорк", ""},
		{"_NOUN", "_NOUN", ""},
	}
	for _, tt := range tests {
		w, p := SplitPOS(tt.in)
		if w != tt.word || p != tt.pos {
			t.Errorf("SplitPOS(%q) = %q, %q; want %q, %q", tt.in, w, p, tt.word, tt.pos)
		}
	}
}
