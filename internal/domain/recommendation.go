package domain

// Bucket classifies a candidate as close to the user's history or a
// deliberate departure from it.
type Bucket string

const (
	BucketSimilar Bucket = "similar"
	BucketDiverse Bucket = "diverse"
)

// Candidate is a raw AI suggestion before metadata resolution.
type Candidate struct {
	Title  string `json:"title"`
	Year   int    `json:"year,omitempty"`
	Bucket Bucket `json:"bucket"`
}

// EnrichedCandidate is a Candidate resolved against the metadata service.
// Genres is never empty; unresolvable or genre-less candidates are dropped
// during enrichment.
type EnrichedCandidate struct {
	TitleID int64    `json:"title_id"`
	Title   string   `json:"title"`
	Genres  []string `json:"genres"`
	Rating  float64  `json:"rating"`
	Year    int      `json:"year,omitempty"`
	Bucket  Bucket   `json:"bucket"`
}

// RankedList is the final artifact pushed to the remote list: at most 20
// items, similar bucket first, generator order within a bucket.
type RankedList []EnrichedCandidate
