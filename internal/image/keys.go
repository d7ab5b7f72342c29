package image

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

const generalPrefix = "general"

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// targetPrefix returns the storage partition for an upload target:
// the customer's folder when a customer id is given, otherwise the
// shared general area.
func targetPrefix(customerID string) string {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return generalPrefix
	}
	return "customers/" + customerID
}

// customerPrefixes are the partitions a customer may read from.
func customerPrefixes(customerID string) []string {
	return []string{"customers/" + customerID + "/", generalPrefix + "/"}
}

// buildObjectKey produces the object key for an uploaded file:
// a date-partitioned path under the target prefix with a sanitized
// filename and a timestamp suffix to avoid collisions.
func buildObjectKey(prefix, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	base = unsafeKeyChars.ReplaceAllString(base, "_")
	if base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%s/%s/%s_%s%s",
		prefix,
		now.Format("2006/01/02"),
		base,
		now.Format("20060102_150405"),
		ext,
	)
}
