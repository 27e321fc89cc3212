package normalize

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vibetix/event-scraper/app/extract"
)

const maxTitleLength = 255

// Normalizer turns raw extracted records into canonical events. Pure
// transformation, no I/O; records that cannot be salvaged come back
// as nil.
type Normalizer struct {
	currency string
}

func NewNormalizer(currency string) *Normalizer {
	return &Normalizer{currency: currency}
}

// Run normalizes one raw event from the given platform. Returns nil
// when the record is unusable (empty title after trimming); that is a
// skip, not an error.
func (n *Normalizer) Run(platformID, sourceURL string, raw extract.RawEvent) *Event {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		slog.Debug("Dropping event with empty title", "platform", platformID)
		return nil
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		title = string([]rune(title)[:maxTitleLength])
	}

	return &Event{
		Title:          title,
		Description:    strings.TrimSpace(raw.Description),
		ImageURL:       cleanImageURL(raw.ImageURL),
		StartsAt:       ParseEventDate(raw.Date, raw.Time, time.Now()),
		VenueName:      strings.TrimSpace(raw.Venue),
		OrganizerName:  strings.TrimSpace(raw.Organizer),
		PriceRange:     n.cleanPrice(raw.Price),
		SourcePlatform: platformID,
		SourceURL:      sourceURL,
		ExternalID:     GenerateExternalID(platformID, strings.TrimSpace(raw.TicketURL), title, strings.TrimSpace(raw.Date)),
		IsExternal:     true,
		TicketingType:  "external",
		Source:         "scraper",
		Status:         "live",
	}
}

// cleanImageURL keeps the URL only if it parses as well-formed http or
// https; anything else is nulled rather than stored broken.
func cleanImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ""
	}

	return raw
}

var (
	priceLeadRe = regexp.MustCompile(`(?i)^(starting\s+(at|from)|starts\s+at|from)\s+`)
	currencyRe  = regexp.MustCompile(`(?i)(kes|ksh|usd|eur|gbp|[$€£])`)
)

// cleanPrice strips "starting at" style phrasing and prefixes the
// local currency code when the remainder is a bare number.
func (n *Normalizer) cleanPrice(raw string) string {
	price := strings.TrimSpace(raw)
	if price == "" {
		return ""
	}

	price = strings.TrimSpace(priceLeadRe.ReplaceAllString(price, ""))
	if price == "" {
		return ""
	}

	if price[0] >= '0' && price[0] <= '9' && !currencyRe.MatchString(price) {
		price = n.currency + " " + price
	}

	return price
}
