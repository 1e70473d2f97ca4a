package streaming

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Platform is one streaming service we can represent. TMDBIDs are the
// authoritative mapping from the provider upstream's numeric ids; name
// matching is the best-effort fallback for ids we do not know.
type Platform struct {
	ID             int
	Name           string
	Homepage       string
	SearchURL      string // %s is replaced with the url-escaped show name
	TMDBIDs        []int
	AffiliateParam string // query parameter for the partner tag, empty = no program
}

// The table is hand-maintained. TMDB provider ids drift as platforms rebrand
// and regional variants appear, so unknown ids falling through to name
// matching is expected, not exceptional.
var platforms = []Platform{
	{
		ID:        1,
		Name:      "Netflix",
		Homepage:  "https://www.netflix.com",
		SearchURL: "https://www.netflix.com/search?q=%s",
		TMDBIDs:   []int{8, 1796},
	},
	{
		ID:             2,
		Name:           "Prime Video",
		Homepage:       "https://www.primevideo.com",
		SearchURL:      "https://www.primevideo.com/search/?phrase=%s",
		TMDBIDs:        []int{9, 10, 119},
		AffiliateParam: "tag",
	},
	{
		ID:       3,
		Name:     "Disney+",
		Homepage: "https://www.disneyplus.com",
		TMDBIDs:  []int{337},
	},
	{
		ID:       4,
		Name:     "HBO Max",
		Homepage: "https://www.max.com",
		TMDBIDs:  []int{384, 1899},
	},
	{
		ID:        5,
		Name:      "Apple TV+",
		Homepage:  "https://tv.apple.com",
		SearchURL: "https://tv.apple.com/search?term=%s",
		TMDBIDs:   []int{2, 350},
	},
	{
		ID:        6,
		Name:      "Hulu",
		Homepage:  "https://www.hulu.com",
		SearchURL: "https://www.hulu.com/search?q=%s",
		TMDBIDs:   []int{15},
	},
	{
		ID:       7,
		Name:     "Paramount+",
		Homepage: "https://www.paramountplus.com",
		TMDBIDs:  []int{531},
	},
	{
		ID:       8,
		Name:     "Peacock",
		Homepage: "https://www.peacocktv.com",
		TMDBIDs:  []int{386, 387},
	},
	{
		ID:       9,
		Name:     "Videoland",
		Homepage: "https://www.videoland.com",
		TMDBIDs:  []int{72},
	},
	{
		ID:       10,
		Name:     "NPO Start",
		Homepage: "https://npo.nl/start",
		TMDBIDs:  []int{360},
	},
	{
		ID:        11,
		Name:      "Crunchyroll",
		Homepage:  "https://www.crunchyroll.com",
		SearchURL: "https://www.crunchyroll.com/search?q=%s",
		TMDBIDs:   []int{283},
	},
	{
		ID:       12,
		Name:     "AMC+",
		Homepage: "https://www.amcplus.com",
		TMDBIDs:  []int{526},
	},
	{
		ID:       13,
		Name:     "NOW",
		Homepage: "https://www.nowtv.com",
		TMDBIDs:  []int{39},
	},
	{
		ID:        14,
		Name:      "YouTube",
		Homepage:  "https://www.youtube.com",
		SearchURL: "https://www.youtube.com/results?search_query=%s",
		TMDBIDs:   []int{192},
	},
	{
		ID:       15,
		Name:     "Google Play Movies",
		Homepage: "https://play.google.com/store/movies",
		TMDBIDs:  []int{3},
	},
}

var platformsByTMDBID = func() map[int]*Platform {
	m := make(map[int]*Platform)
	for i := range platforms {
		for _, id := range platforms[i].TMDBIDs {
			m[id] = &platforms[i]
		}
	}
	return m
}()

// lookupByTMDBID resolves an upstream provider id to a platform.
func lookupByTMDBID(id int) *Platform {
	return platformsByTMDBID[id]
}

// platformByID resolves an internal platform id to its table entry.
func platformByID(id int) *Platform {
	for i := range platforms {
		if platforms[i].ID == id {
			return &platforms[i]
		}
	}
	return nil
}

// lookupByName resolves a provider name to a platform, best effort. Substring
// containment wins; otherwise the closest fuzzy rank. Ambiguous brands
// ("Amazon ...") resolve to whichever platform matches first, which is as good
// as name matching gets.
func lookupByName(name string) *Platform {
	if name == "" {
		return nil
	}
	lower := strings.ToLower(name)

	for i := range platforms {
		if strings.Contains(lower, strings.ToLower(platforms[i].Name)) {
			return &platforms[i]
		}
	}

	best := -1
	var match *Platform
	for i := range platforms {
		rank := fuzzy.RankMatchNormalizedFold(platforms[i].Name, name)
		if rank < 0 {
			continue
		}
		if best < 0 || rank < best {
			best = rank
			match = &platforms[i]
		}
	}
	return match
}
