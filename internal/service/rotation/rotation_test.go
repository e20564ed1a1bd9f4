package rotation

import (
	"testing"
	"time"

	"github.com/osseasofertas/review-platform/internal/catalog"
	"github.com/stretchr/testify/assert"
)

func TestDayBucket(t *testing.T) {
	firstLogin := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, 1, DayBucket(time.Time{}, firstLogin))
	assert.Equal(t, 1, DayBucket(firstLogin, firstLogin))
	assert.Equal(t, 1, DayBucket(firstLogin, firstLogin.Add(23*time.Hour)))
	assert.Equal(t, 2, DayBucket(firstLogin, firstLogin.Add(24*time.Hour)))
	assert.Equal(t, 1, DayBucket(firstLogin, firstLogin.Add(48*time.Hour)))
	assert.Equal(t, 2, DayBucket(firstLogin, firstLogin.Add(72*time.Hour)))
	// a clock skewed before first login stays in bucket 1
	assert.Equal(t, 1, DayBucket(firstLogin, firstLogin.Add(-time.Hour)))
}

func TestRotateAlternates(t *testing.T) {
	firstLogin := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	pool := catalog.Pool()

	day1 := Rotate(pool, firstLogin, firstLogin)
	day2 := Rotate(pool, firstLogin, firstLogin.Add(24*time.Hour))
	day3 := Rotate(pool, firstLogin, firstLogin.Add(48*time.Hour))

	assert.NotEqual(t, day1, day2)
	assert.Equal(t, day1, day3)
	for _, item := range day1 {
		assert.Equal(t, 1, item.Day)
	}
	for _, item := range day2 {
		assert.Equal(t, 2, item.Day)
	}
}

func TestRotateCapsPresentation(t *testing.T) {
	firstLogin := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	selected := Rotate(catalog.Pool(), firstLogin, firstLogin)

	var photos, videos int
	for _, item := range selected {
		switch item.Kind {
		case catalog.KindPhoto:
			photos++
		case catalog.KindVideo:
			videos++
		}
	}
	assert.LessOrEqual(t, photos, catalog.MaxPhotosPerDay)
	assert.LessOrEqual(t, videos, catalog.MaxVideosPerDay)
}

func TestRotateIsPure(t *testing.T) {
	firstLogin := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	now := firstLogin.Add(24 * time.Hour)
	first := Rotate(catalog.Pool(), firstLogin, now)
	second := Rotate(catalog.Pool(), firstLogin, now)
	assert.Equal(t, first, second)
}

func TestRotateUsersSeeOppositeBuckets(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	userA := now.Add(-4 * 24 * time.Hour)
	userB := now.Add(-5 * 24 * time.Hour)
	bucketsA := Rotate(catalog.Pool(), userA, now)
	bucketsB := Rotate(catalog.Pool(), userB, now)
	assert.NotEqual(t, bucketsA[0].Day, bucketsB[0].Day)
}
