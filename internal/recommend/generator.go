// Package recommend turns watch history into a ranked recommendation set:
// AI candidate generation with a fixed similar/diverse mix, metadata
// enrichment, genre filtering and final ranking.
package recommend

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reellists/listgen/internal/domain"
)

const (
	// TargetCount suggestions are requested per generation, split 70/30
	// between the similar and diverse buckets.
	TargetCount   = 50
	similarTarget = 35
	diverseTarget = 15
)

// AIClient is the external suggestion service.
type AIClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Request carries one generation attempt. Simplified requests a shorter
// prompt, used as the single fallback after an AI or parse failure.
type Request struct {
	History      []domain.WatchEvent
	GenreFilters []string
	Simplified   bool
}

type Generator struct {
	ai  AIClient
	log zerolog.Logger
}

func NewGenerator(ai AIClient, log zerolog.Logger) *Generator {
	return &Generator{ai: ai, log: log}
}

// Generate asks the AI service for TargetCount suggestions and returns them
// as bucketed candidates: parsed strictly, deduplicated against each other
// and the history, capped at TargetCount with any diverse shortfall
// backfilled from the similar bucket.
func (g *Generator) Generate(ctx context.Context, req Request) ([]domain.Candidate, error) {
	text, err := g.ai.Generate(ctx, buildPrompt(req))
	if err != nil {
		return nil, err
	}

	candidates, err := parseResponse(text)
	if err != nil {
		return nil, err
	}

	candidates = dedupe(candidates, req.History)
	return mix(candidates), nil
}

func buildPrompt(req Request) string {
	var b strings.Builder

	if req.Simplified {
		b.WriteString("Recommend movies for a viewer who recently watched:\n")
		for i, ev := range req.History {
			if i >= 20 {
				break
			}
			fmt.Fprintf(&b, "- %s (%d)\n", ev.Title, ev.Year)
		}
	} else {
		fmt.Fprintf(&b, "You are a movie recommendation expert. The viewer watched %d movies recently.\n", len(req.History))
		b.WriteString("Genre breakdown:\n")
		for _, line := range genreSummary(req.History) {
			b.WriteString(line + "\n")
		}
		b.WriteString("\nAnalyze their viewing patterns and preferences. ")
		b.WriteString("Suggest well-known movies from different decades and avoid anything they have already watched.\n")
	}

	if len(req.GenreFilters) > 0 {
		fmt.Fprintf(&b, "\nIMPORTANT: Only suggest movies from these genres: %s\n", strings.Join(req.GenreFilters, ", "))
	}

	fmt.Fprintf(&b, `
Provide exactly %d movie suggestions split into two sections:
- %d movies similar to the history (same genres, themes or appeal)
- %d movies deliberately different, to help discovery

Respond with ONLY the two section headers and the movie titles, one per line:

SIMILAR:
Movie Title (Year)
...

DIVERSE:
Movie Title (Year)
...

No explanations, numbering or additional text.
`, TargetCount, similarTarget, diverseTarget)

	return b.String()
}

// genreSummary lists genres by descending frequency with a few example
// titles each.
func genreSummary(history []domain.WatchEvent) []string {
	counts := make(map[string]int)
	examples := make(map[string][]string)
	for _, ev := range history {
		for _, genre := range ev.Genres {
			counts[genre]++
			if len(examples[genre]) < 3 {
				examples[genre] = append(examples[genre], fmt.Sprintf("%s (%d)", ev.Title, ev.Year))
			}
		}
	}

	genres := make([]string, 0, len(counts))
	for g := range counts {
		genres = append(genres, g)
	}
	sort.Slice(genres, func(i, j int) bool {
		if counts[genres[i]] != counts[genres[j]] {
			return counts[genres[i]] > counts[genres[j]]
		}
		return genres[i] < genres[j]
	})

	lines := make([]string, 0, len(genres))
	for _, g := range genres {
		lines = append(lines, fmt.Sprintf("- %s: %d movies (e.g., %s)", g, counts[g], strings.Join(examples[g], ", ")))
	}
	return lines
}

var (
	titleLine = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)$`)
	numbering = regexp.MustCompile(`^\d+[.)]\s+`)
)

// parseResponse decodes the sectioned text into bucketed candidates. The
// decode is strict: a response without recognizable section headers or
// without a single parseable title is UnparsableResponse, never a partial
// best-effort result.
func parseResponse(text string) ([]domain.Candidate, error) {
	var (
		candidates []domain.Candidate
		bucket     domain.Bucket
		sawHeader  bool
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "*") {
			continue
		}

		switch strings.ToUpper(strings.TrimSuffix(line, ":")) {
		case "SIMILAR":
			bucket = domain.BucketSimilar
			sawHeader = true
			continue
		case "DIVERSE":
			bucket = domain.BucketDiverse
			sawHeader = true
			continue
		}
		if bucket == "" {
			continue // preamble before the first header
		}

		line = numbering.ReplaceAllString(line, "")
		title, year := splitTitleYear(line)
		if title == "" {
			continue
		}
		candidates = append(candidates, domain.Candidate{Title: title, Year: year, Bucket: bucket})
	}

	if !sawHeader {
		return nil, &domain.UnparsableResponseError{Msg: "no SIMILAR/DIVERSE sections found"}
	}
	if len(candidates) == 0 {
		return nil, &domain.UnparsableResponseError{Msg: "no movie titles found in sections"}
	}
	return candidates, nil
}

func splitTitleYear(line string) (string, int) {
	if m := titleLine.FindStringSubmatch(line); m != nil {
		year, _ := strconv.Atoi(m[2])
		return strings.TrimSpace(m[1]), year
	}
	return strings.TrimSpace(line), 0
}

// dedupe drops candidates that repeat each other or match an already
// watched title; a suggestion the user has seen carries no value.
func dedupe(candidates []domain.Candidate, history []domain.WatchEvent) []domain.Candidate {
	seen := make(map[string]struct{}, len(history)+len(candidates))
	for _, ev := range history {
		seen[titleKey(ev.Title, ev.Year)] = struct{}{}
		// The AI often omits or misremembers the year; guard on the bare
		// title as well.
		seen[titleKey(ev.Title, 0)] = struct{}{}
	}

	var out []domain.Candidate
	for _, c := range candidates {
		key := titleKey(c.Title, c.Year)
		if _, dup := seen[key]; dup {
			continue
		}
		if _, watched := seen[titleKey(c.Title, 0)]; watched {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9 ]+`)

func titleKey(title string, year int) string {
	t := strings.ToLower(title)
	t = nonAlnum.ReplaceAllString(t, "")
	t = strings.Join(strings.Fields(t), " ")
	return fmt.Sprintf("%s|%d", t, year)
}

// mix enforces the 70/30 ratio: up to 35 similar and 15 diverse candidates.
// When one bucket falls short the other backfills, preserving the total
// wherever the upstream supplied enough items. Never exceeds TargetCount.
func mix(candidates []domain.Candidate) []domain.Candidate {
	var similar, diverse []domain.Candidate
	for _, c := range candidates {
		if c.Bucket == domain.BucketDiverse {
			diverse = append(diverse, c)
		} else {
			similar = append(similar, c)
		}
	}

	takeSim := min(len(similar), similarTarget)
	takeDiv := min(len(diverse), diverseTarget)

	// Backfill shortfalls from the other bucket.
	if short := similarTarget - takeSim; short > 0 {
		takeDiv = min(len(diverse), takeDiv+short)
	}
	if short := diverseTarget - takeDiv; short > 0 {
		takeSim = min(len(similar), takeSim+short)
	}

	out := make([]domain.Candidate, 0, takeSim+takeDiv)
	out = append(out, similar[:takeSim]...)
	out = append(out, diverse[:takeDiv]...)
	return out
}
