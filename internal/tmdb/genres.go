package tmdb

import "strings"

// Genre id mapping for the metadata service's movie taxonomy.
var genresByName = map[string]int{
	"action":          28,
	"adventure":       12,
	"animation":       16,
	"comedy":          35,
	"crime":           80,
	"documentary":     99,
	"drama":           18,
	"family":          10751,
	"fantasy":         14,
	"history":         36,
	"horror":          27,
	"music":           10402,
	"mystery":         9648,
	"romance":         10749,
	"science fiction": 878,
	"thriller":        53,
	"war":             10752,
	"western":         37,
}

var genresByID = func() map[int]string {
	m := make(map[int]string, len(genresByName))
	for name, id := range genresByName {
		m[id] = name
	}
	return m
}()

// GenreID resolves a genre name to its metadata-service id.
func GenreID(name string) (int, bool) {
	id, ok := genresByName[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// GenreName resolves a metadata-service genre id to its name.
func GenreName(id int) (string, bool) {
	name, ok := genresByID[id]
	return name, ok
}

// GenreNames maps a result's genre ids to names, dropping unknown ids.
func GenreNames(ids []int) []string {
	var names []string
	for _, id := range ids {
		if name, ok := genresByID[id]; ok {
			names = append(names, name)
		}
	}
	return names
}
