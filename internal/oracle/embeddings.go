package oracle

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"contexto/internal/game"
)

type entry struct {
	word string
	pos  string
	vec  []float32
}

// Embeddings holds unit-length word vectors indexed by bare word. One word
// may have several entries, one per part of speech.
type Embeddings struct {
	dim     int
	entries []entry
	byWord  map[string][]int
}

// Len is the number of word/POS entries.
func (e *Embeddings) Len() int { return len(e.entries) }

// Dim is the vector dimension.
func (e *Embeddings) Dim() int { return e.dim }

// Has reports whether word has at least one vector.
func (e *Embeddings) Has(word string) bool {
	_, ok := e.byWord[word]
	return ok
}

// ReadVec parses word2vec text format: an optional "<count> <dim>" header
// followed by "token v1 v2 ...". Lines whose dimension disagrees with the
// first vector are skipped.
func ReadVec(r io.Reader, logger game.Logger) (*Embeddings, error) {
	e := &Embeddings{byWord: make(map[string][]int)}
	br := bufio.NewReaderSize(r, 1<<20)
	lineNo, skipped := 0, 0
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lineNo++
			if !e.parseLine(line, lineNo) {
				skipped++
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read embeddings line %d: %w", lineNo, err)
		}
	}
	if len(e.entries) == 0 {
		return nil, fmt.Errorf("no vectors found in %d lines", lineNo)
	}
	if skipped > 0 && logger != nil {
		logger.Printf("[WARN] Skipped %d malformed embedding lines", skipped)
	}
	return e, nil
}

func (e *Embeddings) parseLine(line string, lineNo int) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	if lineNo == 1 && len(fields) == 2 {
		if _, err := strconv.Atoi(fields[0]); err == nil {
			if _, err := strconv.Atoi(fields[1]); err == nil {
				return true
			}
		}
	}
	if len(fields) < 2 {
		return false
	}
	dim := len(fields) - 1
	if e.dim == 0 {
		e.dim = dim
	}
	if dim != e.dim {
		return false
	}

	vec := make([]float32, dim)
	var norm float64
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return false
		}
		vec[i] = float32(v)
		norm += v * v
	}
	if norm == 0 {
		return false
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}

	word, pos := SplitPOS(fields[0])
	word = game.NormalizeWord(word)
	if word == "" {
		return false
	}
	e.byWord[word] = append(e.byWord[word], len(e.entries))
	e.entries = append(e.entries, entry{word: word, pos: pos, vec: vec})
	return true
}

// LoadVec reads a .vec file from disk.
func LoadVec(path string, logger game.Logger) (*Embeddings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embeddings: %w", err)
	}
	defer f.Close()
	return ReadVec(f, logger)
}

// similarity is the best cosine similarity over all POS variants of a and b.
// Same-POS pairs get a 10% boost. The result is clamped to [0, 1].
func (e *Embeddings) similarity(a, b string) (float32, bool) {
	ia, okA := e.byWord[a]
	ib, okB := e.byWord[b]
	if !okA || !okB {
		return 0, false
	}
	best := float32(math.Inf(-1))
	for _, i := range ia {
		for _, j := range ib {
			sim := dot(e.entries[i].vec, e.entries[j].vec)
			if e.entries[i].pos != "" && e.entries[i].pos == e.entries[j].pos {
				sim *= 1.1
			}
			best = max(best, sim)
		}
	}
	return min(max(best, 0), 1), true
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
