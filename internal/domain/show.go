package domain

// ShowRecord is the canonical show metadata as served by the metadata
// upstream. Immutable once fetched for a cache generation; refreshed only by
// TTL expiry.
type ShowRecord struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type,omitempty"`
	Language     string    `json:"language,omitempty"`
	Genres       []string  `json:"genres,omitempty"`
	Status       string    `json:"status,omitempty"`
	Premiered    string    `json:"premiered,omitempty"`
	Ended        string    `json:"ended,omitempty"`
	OfficialSite string    `json:"officialSite,omitempty"`
	Rating       *float64  `json:"rating,omitempty"`
	Network      *Network  `json:"network,omitempty"`
	WebChannel   *Network  `json:"webChannel,omitempty"`
	Schedule     *Schedule `json:"schedule,omitempty"`
	Summary      string    `json:"summary,omitempty"`
	Image        *ImageSet `json:"image,omitempty"`
	Externals    Externals `json:"externals"`
}

// Network is a broadcaster or web channel. For web-channel originals it doubles
// as the show's origin streaming platform signal.
type Network struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

type Schedule struct {
	Time string   `json:"time,omitempty"`
	Days []string `json:"days,omitempty"`
}

type ImageSet struct {
	Medium   string `json:"medium,omitempty"`
	Original string `json:"original,omitempty"`
}

type Externals struct {
	IMDB    string `json:"imdb,omitempty"`
	TheTVDB int    `json:"thetvdb,omitempty"`
	TMDB    int    `json:"tmdb,omitempty"`
}

// PremieredYear extracts the four-digit year from the premiere date, or 0.
func (s *ShowRecord) PremieredYear() int {
	if len(s.Premiered) < 4 {
		return 0
	}
	year := 0
	for _, r := range s.Premiered[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}

type Episode struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Airdate string `json:"airdate,omitempty"`
	Runtime int    `json:"runtime,omitempty"`
	Summary string `json:"summary,omitempty"`
}

type CastMember struct {
	Person    Person `json:"person"`
	Character string `json:"character,omitempty"`
}

type Person struct {
	ID      int       `json:"id"`
	Name    string    `json:"name"`
	Country string    `json:"country,omitempty"`
	Image   *ImageSet `json:"image,omitempty"`
}

// PersonCredit links a person to a show they appear in.
type PersonCredit struct {
	ShowID    int    `json:"showId"`
	ShowName  string `json:"showName"`
	Character string `json:"character,omitempty"`
}

// SearchResult is one scored hit from the metadata search endpoint.
type SearchResult struct {
	Score float64    `json:"score"`
	Show  ShowRecord `json:"show"`
}
