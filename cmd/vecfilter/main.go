package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"contexto/internal/game"
	"contexto/internal/oracle"
)

func main() {
	var (
		inputFile  = flag.String("input", "", "Input .vec file path")
		outputFile = flag.String("output", "", "Output .vec file path")
		blacklist  = flag.String("blacklist", "", "Optional blacklist file")
		minLength  = flag.Int("min-length", 3, "Minimum word length in letters")
		posList    = flag.String("pos", "ANY", "Comma separated parts of speech to keep")
		maxWords   = flag.Int("max", 0, "Maximum number of vectors to keep (0 keeps all)")
	)
	flag.Parse()

	if *inputFile == "" || *outputFile == "" {
		log.Fatal("Usage: go run ./cmd/vecfilter -input=<file.vec> -output=<file.vec> [-blacklist=<file>] [-min-length=3] [-pos=NOUN,ADJ] [-max=0]")
	}

	filter := oracle.NewFilter(*minLength, strings.Split(*posList, ","))
	if *blacklist != "" {
		n, err := filter.LoadBlacklist(*blacklist)
		if err != nil {
			log.Fatalf("Failed to read blacklist: %v", err)
		}
		log.Printf("Loaded %d blacklisted words", n)
	}

	in, err := os.Open(*inputFile)
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(*outputFile), 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	out, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}

	kept, total, err := filterVec(in, out, filter, *maxWords)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatalf("Failed to filter embeddings: %v", err)
	}

	fmt.Printf("Kept %d of %d vectors: %s -> %s\n", kept, total, *inputFile, *outputFile)
}

// filterVec copies the vector lines of r whose token passes filter to w.
// The header line, if any, is dropped since the count changes.
func filterVec(r io.Reader, w io.Writer, filter *oracle.Filter, maxWords int) (kept, total int, err error) {
	br := bufio.NewReaderSize(r, 1<<20)
	bw := bufio.NewWriter(w)
	first := true
	for {
		line, rerr := br.ReadString('\n')
		if line != "" {
			fields := strings.Fields(line)
			isHeader := first && len(fields) == 2
			first = false
			if len(fields) > 1 && !isHeader {
				total++
				word, pos := oracle.SplitPOS(fields[0])
				if (maxWords <= 0 || kept < maxWords) && filter.Allows(game.NormalizeWord(word), pos) {
					if _, err := bw.WriteString(strings.TrimRight(line, "\r\n") + "\n"); err != nil {
						return kept, total, err
					}
					kept++
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return kept, total, rerr
		}
	}
	return kept, total, bw.Flush()
}
