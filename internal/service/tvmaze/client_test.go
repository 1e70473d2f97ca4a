package tvmaze

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kapu/showdex-go/pkg/errors"
	"go.uber.org/zap"
)

const showJSON = `{
	"id": 169,
	"name": "Breaking Bad",
	"type": "Scripted",
	"language": "English",
	"genres": ["Drama", "Crime", "Thriller"],
	"status": "Ended",
	"premiered": "2008-01-20",
	"rating": {"average": 9.2},
	"network": {"id": 20, "name": "AMC", "country": {"code": "US"}},
	"schedule": {"time": "22:00", "days": ["Sunday"]},
	"summary": "<p>A teacher...</p>",
	"externals": {"imdb": "tt0903747", "thetvdb": 81189}
}`

func TestClientGetShowMapsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shows/169" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(showJSON))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	show, err := client.GetShow(context.Background(), 169)
	if err != nil {
		t.Fatalf("GetShow: %v", err)
	}

	if show.Name != "Breaking Bad" {
		t.Errorf("name = %q", show.Name)
	}
	if show.Rating == nil || *show.Rating != 9.2 {
		t.Errorf("rating = %v", show.Rating)
	}
	if show.Network == nil || show.Network.Country != "US" {
		t.Errorf("network = %+v", show.Network)
	}
	if show.Externals.IMDB != "tt0903747" {
		t.Errorf("imdb = %q", show.Externals.IMDB)
	}
	if show.PremieredYear() != 2008 {
		t.Errorf("premiered year = %d", show.PremieredYear())
	}
}

func TestClientGetShowNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	_, err := client.GetShow(context.Background(), 99999999)
	if err == nil {
		t.Fatal("expected error for missing show")
	}

	apiErr, ok := err.(*errors.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != 404 {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
}

func TestClientGetShowIndexPastEndIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	shows, err := client.GetShowIndex(context.Background(), 5000)
	if err != nil {
		t.Fatalf("GetShowIndex: %v", err)
	}
	if len(shows) != 0 {
		t.Fatalf("expected empty page, got %d shows", len(shows))
	}
}

func TestClientSearchShows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "breaking" {
			t.Fatalf("query = %q", got)
		}
		_, _ = w.Write([]byte(`[{"score": 0.9, "show": ` + showJSON + `}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, zap.NewNop())
	results, err := client.SearchShows(context.Background(), "breaking")
	if err != nil {
		t.Fatalf("SearchShows: %v", err)
	}
	if len(results) != 1 || results[0].Show.ID != 169 {
		t.Fatalf("unexpected results: %+v", results)
	}
}
