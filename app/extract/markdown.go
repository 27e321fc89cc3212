package extract

import (
	"regexp"
	"strings"
)

// Listing pages rendered to markdown follow a loose but recognizable
// shape: each event is a heading followed by labeled lines and a
// ticket link. The parser splits on headings and scans each section
// for the fields it knows about.
var (
	headingRe = regexp.MustCompile(`^#{2,4}\s+(.+?)\s*$`)
	labelRe   = regexp.MustCompile(`(?i)^\*{0,2}(date|time|venue|location|organizer|organiser|price|tickets?)\*{0,2}\s*[:\-]\s*(.+?)\s*$`)
	linkRe    = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)\)`)
	imageRe   = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)\)`)
)

// ParseMarkdown extracts raw events from a markdown rendering of a
// listing page. Relative links are resolved against baseURL. Sections
// without a heading are ignored; everything else is left for the
// normalizer to judge.
func ParseMarkdown(markdown, baseURL string) []RawEvent {
	var events []RawEvent
	var current *RawEvent

	flush := func() {
		if current != nil && current.Title != "" {
			events = append(events, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			flush()
			current = &RawEvent{Title: stripMarkdown(m[1])}
			continue
		}

		if current == nil {
			continue
		}

		if m := imageRe.FindStringSubmatch(line); m != nil && current.ImageURL == "" {
			current.ImageURL = resolveURL(m[1], baseURL)
		}

		if m := labelRe.FindStringSubmatch(line); m != nil {
			value := stripMarkdown(m[2])
			switch strings.ToLower(m[1]) {
			case "date":
				current.Date = value
			case "time":
				current.Time = value
			case "venue", "location":
				current.Venue = value
			case "organizer", "organiser":
				current.Organizer = value
			case "price":
				current.Price = value
			case "ticket", "tickets":
				if m := linkRe.FindStringSubmatch(line); m != nil {
					current.TicketURL = resolveURL(m[2], baseURL)
				}
			}
			continue
		}

		if m := linkRe.FindStringSubmatch(line); m != nil && current.TicketURL == "" {
			label := strings.ToLower(m[1])
			if strings.Contains(label, "ticket") || strings.Contains(label, "buy") || strings.Contains(label, "book") {
				current.TicketURL = resolveURL(m[2], baseURL)
			}
		}
	}
	flush()

	return events
}

// stripMarkdown removes link and emphasis markup from a field value.
func stripMarkdown(s string) string {
	s = linkRe.ReplaceAllString(s, "$1")
	s = strings.NewReplacer("**", "", "*", "", "_", "", "`", "").Replace(s)
	return strings.TrimSpace(s)
}

func resolveURL(href, baseURL string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return strings.TrimRight(baseURL, "/") + href
	}
	return href
}
