package extract

// RawEvent is one unstructured event record as returned by the
// extraction service. No field is guaranteed to be present or well
// formed; the normalizer decides what survives.
type RawEvent struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Venue       string `json:"venue,omitempty"`
	Organizer   string `json:"organizer,omitempty"`
	Price       string `json:"price,omitempty"`
	TicketURL   string `json:"ticketUrl,omitempty"`
}

// eventSchema is the output schema sent with every extract job. The
// service is instructed to return {"events": [...]} shaped data.
var eventSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"events": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
					"imageUrl":    map[string]any{"type": "string"},
					"date":        map[string]any{"type": "string"},
					"time":        map[string]any{"type": "string"},
					"venue":       map[string]any{"type": "string"},
					"organizer":   map[string]any{"type": "string"},
					"price":       map[string]any{"type": "string"},
					"ticketUrl":   map[string]any{"type": "string"},
				},
				"required": []string{"title"},
			},
		},
	},
	"required": []string{"events"},
}

type startJobRequest struct {
	URLs   []string       `json:"urls"`
	Prompt string         `json:"prompt"`
	Schema map[string]any `json:"schema"`
}

type startJobResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Error   string `json:"error,omitempty"`
}

type jobStatusResponse struct {
	Status string `json:"status"` // pending|processing|completed|failed
	Data   struct {
		Events []RawEvent `json:"events"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
}

type scrapeResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Markdown string `json:"markdown"`
	} `json:"data"`
	Error string `json:"error,omitempty"`
}
