package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"assistant/internal/utils"

	"github.com/cespare/xxhash/v2"
)

// Embedder turns texts into fixed-length vectors. Vectors from the same
// embedder are comparable with cosine similarity; nothing else is assumed.
type Embedder interface {
	// Embed returns one vector per input text, in input order
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model names the embedding model, used to key cached vectors
	Model() string
}

// DefaultLexicalDimensions is the vector size of the lexical embedder
const DefaultLexicalDimensions = 1024

// LexicalEmbedder is a local, deterministic embedder built from hashed
// word and character-trigram features. Diacritics are folded so that
// unaccented Vietnamese matches its accented form.
type LexicalEmbedder struct {
	dims int
}

// NewLexicalEmbedder creates a lexical embedder; dims <= 0 uses the default
func NewLexicalEmbedder(dims int) *LexicalEmbedder {
	if dims <= 0 {
		dims = DefaultLexicalDimensions
	}
	return &LexicalEmbedder{dims: dims}
}

// Model implements Embedder
func (l *LexicalEmbedder) Model() string {
	return fmt.Sprintf("lexical-ngram-%d", l.dims)
}

// Embed implements Embedder
func (l *LexicalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = l.vector(text)
	}
	return out, nil
}

func (l *LexicalEmbedder) vector(text string) []float32 {
	v := make([]float32, l.dims)
	words := strings.Fields(utils.FoldAccents(utils.NormalizeText(text)))
	for _, w := range words {
		l.add(v, "w:"+w, 1.0)
		padded := []rune(" " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			l.add(v, "c:"+string(padded[i:i+3]), 0.5)
		}
	}
	for i := 0; i+1 < len(words); i++ {
		l.add(v, "b:"+words[i]+" "+words[i+1], 0.75)
	}
	normalize(v)
	return v
}

// add hashes a feature into a bucket; the top bit picks the sign so
// collisions tend to cancel instead of accumulate.
func (l *LexicalEmbedder) add(v []float32, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	idx := int(h % uint64(l.dims))
	if h>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

// unavailableEmbedder always fails. It backs EMBEDDING_PROVIDER=none,
// which runs the assistant in degraded mode on purpose.
type unavailableEmbedder struct{}

// NewUnavailableEmbedder returns an embedder whose every call fails
func NewUnavailableEmbedder() Embedder {
	return unavailableEmbedder{}
}

func (unavailableEmbedder) Model() string { return "none" }

func (unavailableEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, ErrProviderUnavailable
}

// normalize scales v to unit length in place; zero vectors are left alone
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

// cosineSimilarity returns the cosine of the angle between a and b.
// Mismatched lengths and zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
