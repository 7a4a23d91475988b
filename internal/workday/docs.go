package workday

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const (
	embeddingDim = 512
	maxChunkLen  = 800
	DefaultTopK  = 3
)

// DocChunk is one passage of an HR document. Part numbers start at 1 within
// each file.
type DocChunk struct {
	Filename  string    `json:"filename"`
	Part      int       `json:"part"`
	Text      string    `json:"content"`
	Embedding []float32 `json:"-"`
}

// extractor returns the plain text of an HR document.
type extractor func(path string) (string, error)

// extractors maps a lower-case file extension to its text extractor. Files
// with any other extension are not indexed.
var extractors = map[string]extractor{
	".txt": readPlain,
	".md":  readPlain,
	".pdf": readPDF,
}

// DocIndex answers HR policy questions from local documents using hashed
// bag-of-words embeddings. It is read-only after Index returns.
type DocIndex struct {
	chunks []DocChunk
	logger *slog.Logger
}

func NewDocIndex(logger *slog.Logger) *DocIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocIndex{logger: logger}
}

// Index walks dir, including subfolders, and embeds every supported
// document. Filenames are recorded relative to dir. A missing directory is
// not an error.
func (d *DocIndex) Index(dir string) error {
	var files, added int

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		extract, ok := extractors[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = entry.Name()
		}

		text, err := extract(path)
		if err != nil {
			return fmt.Errorf("read %q: %w", rel, err)
		}

		for i, passage := range passages(text, maxChunkLen) {
			d.chunks = append(d.chunks, DocChunk{
				Filename:  filepath.ToSlash(rel),
				Part:      i + 1,
				Text:      passage,
				Embedding: embed(passage),
			})
			added++
		}
		files++
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("workday: index %q: %w", dir, err)
	}

	if added == 0 {
		d.logger.Warn("no HR documents found", "dir", dir)
		return nil
	}

	d.logger.Info("indexed HR documents", "dir", dir, "files", files, "chunks", added)
	return nil
}

func (d *DocIndex) Len() int {
	return len(d.chunks)
}

// Search returns up to topK passages ranked by similarity to query. Ties keep
// index order.
func (d *DocIndex) Search(query string, topK int) []DocChunk {
	if len(d.chunks) == 0 || topK <= 0 {
		return nil
	}

	q := embed(query)

	type hit struct {
		chunk DocChunk
		score float32
	}
	hits := make([]hit, len(d.chunks))
	for i, c := range d.chunks {
		hits[i] = hit{chunk: c, score: dot(q, c.Embedding)}
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return cmp.Compare(b.score, a.score) })

	k := min(topK, len(hits))
	out := make([]DocChunk, k)
	for i := range k {
		out[i] = hits[i].chunk
	}
	return out
}

// tokens lower-cases text and splits it on anything that is not a letter or
// digit, so "leave." and "Leave" hash alike.
func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// embed hashes tokens into a fixed-size vector scaled to unit length.
func embed(text string) []float32 {
	vec := make([]float32, embeddingDim)
	h := fnv.New32a()
	for _, tok := range tokens(text) {
		h.Reset()
		h.Write([]byte(tok))
		vec[h.Sum32()%embeddingDim]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v * v)
	}
	if sum == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// dot is cosine similarity for the unit vectors embed produces.
func dot(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// passages packs blank-line separated paragraphs into passages of at most
// maxLen bytes. An oversized paragraph stands alone.
func passages(text string, maxLen int) []string {
	var (
		out []string
		buf []string
		n   int
	)
	flush := func() {
		if len(buf) > 0 {
			out = append(out, strings.Join(buf, "\n\n"))
			buf, n = buf[:0], 0
		}
	}

	for _, para := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if n > 0 && n+2+len(para) > maxLen {
			flush()
		}
		if n > 0 {
			n += 2
		}
		buf = append(buf, para)
		n += len(para)
	}
	flush()

	return out
}

func readPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
