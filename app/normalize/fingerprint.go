package normalize

import (
	"crypto/sha256"
	"encoding/hex"
)

// GenerateExternalID builds the deterministic per-platform identity
// fingerprint used as the upsert key. The ticket URL is the most
// stable thing a listing site exposes, so it wins when present;
// title plus raw date string is the fallback. Descriptions, images
// and prices deliberately do not participate.
func GenerateExternalID(platformID, ticketURL, title, rawDate string) string {
	var seed string
	if ticketURL != "" {
		seed = platformID + ":" + ticketURL
	} else {
		seed = platformID + ":" + title + ":" + rawDate
	}

	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:16]
}
