// Package rotation selects the content items presentable on a given day.
//
// The rotation is keyed off the elapsed whole days since the user's own
// first-login epoch, not the calendar day of week, so two users registered
// a day apart see opposite buckets on the same date.
package rotation

import (
	"time"

	"github.com/osseasofertas/review-platform/internal/catalog"
)

// Buckets is the number of rotation partitions in the content pool.
const Buckets = 2

// DayBucket computes the 1-based rotation bucket for a user whose first
// login happened at firstLogin. A zero firstLogin defaults to bucket 1.
func DayBucket(firstLogin, now time.Time) int {
	if firstLogin.IsZero() {
		return 1
	}
	elapsed := int(now.Sub(firstLogin).Hours() / 24)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed%Buckets + 1
}

// Rotate filters the pool down to the bucket computed for (firstLogin, now)
// and caps the result to the fixed presentation shape. The function is pure:
// identical inputs always yield identical output.
func Rotate(pool []catalog.Item, firstLogin, now time.Time) []catalog.Item {
	bucket := DayBucket(firstLogin, now)
	var photos, videos int
	selected := make([]catalog.Item, 0, catalog.MaxPhotosPerDay+catalog.MaxVideosPerDay)
	for _, item := range pool {
		if item.Day != bucket {
			continue
		}
		switch item.Kind {
		case catalog.KindPhoto:
			if photos >= catalog.MaxPhotosPerDay {
				continue
			}
			photos++
		case catalog.KindVideo:
			if videos >= catalog.MaxVideosPerDay {
				continue
			}
			videos++
		default:
			continue
		}
		selected = append(selected, item)
	}
	return selected
}
