package normalize

import "time"

// Event is a canonical event record ready for storage. Produced only
// by the Normalizer; the orchestrator hands it to the repository
// unchanged.
type Event struct {
	Title          string
	Description    string
	ImageURL       string
	StartsAt       *time.Time
	VenueName      string
	OrganizerName  string
	PriceRange     string
	SourcePlatform string
	SourceURL      string
	ExternalID     string
	IsExternal     bool
	TicketingType  string
	Source         string
	Status         string
}
