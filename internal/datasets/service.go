package datasets

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shalwin04/ai-insights-copilot-sub000/internal/pipeline"
)

// maxRetrieved caps how many descriptors the retrieval stage receives.
const maxRetrieved = 5

// Service contains business logic for the dataset catalog. It also
// implements the pipeline's retrieval collaborator: Retrieve ranks
// registered descriptors against the query text.
type Service struct {
	Repo Repo
}

// Register records a dataset descriptor, replacing any prior descriptor for
// the same name and source.
func (s *Service) Register(ctx context.Context, d Dataset) (Dataset, error) {
	if d.Name == "" || d.Source == "" {
		return Dataset{}, errors.New("name and source are required")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	if err := s.Repo.Upsert(ctx, d); err != nil {
		return Dataset{}, err
	}
	return d, nil
}

// List returns catalog entries, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Dataset, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Retrieve returns descriptors ranked by lexical overlap with the query.
// Ranking is deliberately simple; similarity scoring beyond token overlap
// belongs to an external discovery collaborator.
func (s *Service) Retrieve(ctx context.Context, query string) ([]pipeline.Dataset, error) {
	all, err := s.Repo.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}

	terms := tokenize(query)
	type scored struct {
		d     Dataset
		score int
	}
	ranked := make([]scored, 0, len(all))
	for _, d := range all {
		score := overlap(terms, d)
		if score > 0 {
			ranked = append(ranked, scored{d: d, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]pipeline.Dataset, 0, maxRetrieved)
	for _, r := range ranked {
		if len(out) == maxRetrieved {
			break
		}
		out = append(out, toStateDataset(r.d))
	}
	return out, nil
}

func toStateDataset(d Dataset) pipeline.Dataset {
	return pipeline.Dataset{
		ID:          d.ID,
		Name:        d.Name,
		Source:      d.Source,
		Description: d.Description,
		Columns:     append([]string{}, d.Columns...),
		RowCount:    d.RowCount,
		Tags:        append([]string{}, d.Tags...),
	}
}

func tokenize(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,!?\"'")
		if len(tok) > 2 {
			out[tok] = true
		}
	}
	return out
}

func overlap(terms map[string]bool, d Dataset) int {
	score := 0
	candidates := append([]string{d.Name, d.Description}, d.Tags...)
	candidates = append(candidates, d.Columns...)
	for _, c := range candidates {
		for tok := range tokenize(c) {
			if terms[tok] {
				score++
			}
		}
	}
	return score
}
