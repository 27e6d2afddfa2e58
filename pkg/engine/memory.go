package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// memory keeps task outputs of the current run. With an embedder outputs are recalled by cosine
// similarity to the task, otherwise the most recent ones are returned.
type memory struct {
	embedder Client
	items    []memoryItem
}

type memoryItem struct {
	text   string
	vector []float32
}

func newMemory(embedder Client) *memory {
	return &memory{embedder: embedder}
}

// Store adds a task output.
func (m *memory) Store(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	item := memoryItem{text: text}
	if m.embedder != nil {
		vecs, err := m.embedder.Embed(ctx, []string{text})
		if err != nil {
			return fmt.Errorf("embed output: %w", err)
		}
		if len(vecs) > 0 {
			item.vector = vecs[0]
		}
	}
	m.items = append(m.items, item)
	return nil
}

// Recall returns up to k stored outputs most relevant to query.
func (m *memory) Recall(ctx context.Context, query string, k int) ([]string, error) {
	if len(m.items) == 0 || k <= 0 {
		return nil, nil
	}

	if m.embedder == nil {
		res := make([]string, 0, k)
		for i := len(m.items) - 1; i >= 0 && len(res) < k; i-- {
			res = append(res, m.items[i].text)
		}
		return res, nil
	}

	vecs, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	q := vecs[0]

	type scored struct {
		text  string
		score float64
	}
	ranked := make([]scored, 0, len(m.items))
	for _, it := range m.items {
		ranked = append(ranked, scored{text: it.text, score: cosine(q, it.vector)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	res := make([]string, 0, k)
	for _, s := range ranked[:min(k, len(ranked))] {
		res = append(res, s.text)
	}
	return res, nil
}

// cosine returns the cosine similarity of two vectors, 0 for mismatched or zero vectors.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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
