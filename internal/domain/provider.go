package domain

// Availability is the commercial model under which a platform offers a show.
type Availability string

const (
	AvailabilitySubscription Availability = "subscription"
	AvailabilityBuy          Availability = "buy"
	AvailabilityRent         Availability = "rent"
	AvailabilityFree         Availability = "free"
	AvailabilityAds          Availability = "ads"
)

// StreamingProvider is one normalized watch option, scoped to a country.
// Within one aggregated response at most one entry exists per
// (ID, Availability) pair.
type StreamingProvider struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	LogoURL      string       `json:"logoUrl,omitempty"`
	Country      string       `json:"country"`
	Availability Availability `json:"availabilityType"`
	Link         string       `json:"link,omitempty"`
}
