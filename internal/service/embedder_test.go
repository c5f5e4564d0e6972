package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"assistant/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLexicalEmbedder(t *testing.T) {
	e := NewLexicalEmbedder(256)
	assert.Equal(t, "lexical-ngram-256", e.Model())

	vecs, err := e.Embed(context.Background(), []string{"phòng ngủ", "phong ngu", "PHÒNG  NGỦ", "villa ở Canada", ""})
	require.NoError(t, err)
	require.Len(t, vecs, 5)

	for _, v := range vecs {
		assert.Len(t, v, 256)
	}

	assert.InDelta(t, 1.0, cosineSimilarity(vecs[0], vecs[1]), 1e-6, "accents are folded")
	assert.InDelta(t, 1.0, cosineSimilarity(vecs[0], vecs[2]), 1e-6, "case and spacing are normalized")
	assert.Less(t, cosineSimilarity(vecs[0], vecs[3]), 0.5)
	assert.Equal(t, 0.0, cosineSimilarity(vecs[0], vecs[4]), "empty text embeds to the zero vector")
}

func TestLexicalEmbedder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLexicalEmbedder(0).Embed(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnavailableEmbedder(t *testing.T) {
	e := NewUnavailableEmbedder()
	assert.Equal(t, "none", e.Model())

	_, err := e.Embed(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestOpenAIEmbedder_Batches(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var req EmbeddingRequest
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "embed-model", req.Model)
		assert.Equal(t, "float", req.EncodingFormat)
		assert.Equal(t, "NONE", req.ExtraBody["truncate"])

		// Answer out of order to check index-based placement
		var resp EmbeddingResponse
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Object    string    `json:"object"`
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: []float32{float32(len(req.Input[i]))}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg := &config.EmbeddingConfig{
		APIKey:    "sk-test",
		APIBase:   srv.URL + "/v1",
		Model:     "embed-model",
		ExtraBody: `{"truncate":"NONE"}`,
		BatchSize: 2,
		Timeout:   5,
	}
	e := NewOpenAIEmbedder(cfg, zap.NewNop())
	assert.Equal(t, "embed-model", e.Model())

	vecs, err := e.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}, {3}}, vecs)
	assert.Equal(t, int32(2), requests.Load())
}

func TestOpenAIEmbedder_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Authorization"), "partial") {
			_, _ = w.Write([]byte(`{"data":[{"embedding":[1],"index":0}]}`))
			return
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	base := config.EmbeddingConfig{APIBase: srv.URL, Model: "m", BatchSize: 10, Timeout: 5}

	t.Run("missing key", func(t *testing.T) {
		cfg := base
		_, err := NewOpenAIEmbedder(&cfg, nil).Embed(context.Background(), []string{"x"})
		assert.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("http error", func(t *testing.T) {
		cfg := base
		cfg.APIKey = "sk"
		_, err := NewOpenAIEmbedder(&cfg, nil).Embed(context.Background(), []string{"x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("missing vector", func(t *testing.T) {
		cfg := base
		cfg.APIKey = "partial"
		_, err := NewOpenAIEmbedder(&cfg, nil).Embed(context.Background(), []string{"x", "y"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing embedding 1")
	})

	t.Run("empty input", func(t *testing.T) {
		cfg := base
		cfg.APIKey = "sk"
		vecs, err := NewOpenAIEmbedder(&cfg, nil).Embed(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, vecs)
	})
}
