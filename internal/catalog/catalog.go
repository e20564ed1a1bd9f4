// Package catalog provides the static pool of reviewable content items.
package catalog

import (
	"github.com/shopspring/decimal"
)

// Kind discriminates content item types.
type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
)

// Presentation caps applied after rotation filtering.
const (
	MaxPhotosPerDay = 8
	MaxVideosPerDay = 2
)

// Item describes one reviewable content item. Items are immutable and are
// never created or destroyed at runtime.
type Item struct {
	ID         string
	Kind       Kind
	Title      string
	MediaURL   string
	MinEarning decimal.Decimal
	MaxEarning decimal.Decimal
	Day        int
}

// Question describes one single-choice stage of a photo evaluation.
type Question struct {
	ID      int
	Prompt  string
	Options []string
}

// PhotoQuestions is the fixed three-stage questionnaire applied to every
// photo item.
var PhotoQuestions = [3]Question{
	{ID: 1, Prompt: "How appealing is this content?", Options: []string{"Very appealing", "Somewhat appealing", "Not appealing"}},
	{ID: 2, Prompt: "How would you rate the visual quality?", Options: []string{"Excellent", "Good", "Average", "Poor"}},
	{ID: 3, Prompt: "Would you recommend this to a friend?", Options: []string{"Definitely", "Maybe", "No"}},
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var pool = []Item{
	// day 1 rotation
	{ID: "p-101", Kind: KindPhoto, Title: "Urban Streetwear Collection", MediaURL: "https://cdn.review-platform.app/content/p-101.jpg", MinEarning: dec("2.50"), MaxEarning: dec("7.00"), Day: 1},
	{ID: "p-102", Kind: KindPhoto, Title: "Minimalist Home Office Setup", MediaURL: "https://cdn.review-platform.app/content/p-102.jpg", MinEarning: dec("2.00"), MaxEarning: dec("6.50"), Day: 1},
	{ID: "p-103", Kind: KindPhoto, Title: "Artisan Coffee Roastery", MediaURL: "https://cdn.review-platform.app/content/p-103.jpg", MinEarning: dec("3.00"), MaxEarning: dec("8.00"), Day: 1},
	{ID: "p-104", Kind: KindPhoto, Title: "Vintage Film Camera Series", MediaURL: "https://cdn.review-platform.app/content/p-104.jpg", MinEarning: dec("2.50"), MaxEarning: dec("7.50"), Day: 1},
	{ID: "p-105", Kind: KindPhoto, Title: "Sustainable Fashion Lookbook", MediaURL: "https://cdn.review-platform.app/content/p-105.jpg", MinEarning: dec("2.00"), MaxEarning: dec("5.50"), Day: 1},
	{ID: "p-106", Kind: KindPhoto, Title: "Modern Kitchen Essentials", MediaURL: "https://cdn.review-platform.app/content/p-106.jpg", MinEarning: dec("2.50"), MaxEarning: dec("6.00"), Day: 1},
	{ID: "p-107", Kind: KindPhoto, Title: "Outdoor Adventure Gear", MediaURL: "https://cdn.review-platform.app/content/p-107.jpg", MinEarning: dec("3.50"), MaxEarning: dec("9.00"), Day: 1},
	{ID: "p-108", Kind: KindPhoto, Title: "Handcrafted Leather Goods", MediaURL: "https://cdn.review-platform.app/content/p-108.jpg", MinEarning: dec("2.00"), MaxEarning: dec("6.00"), Day: 1},
	{ID: "p-109", Kind: KindPhoto, Title: "Botanical Interior Design", MediaURL: "https://cdn.review-platform.app/content/p-109.jpg", MinEarning: dec("2.50"), MaxEarning: dec("7.00"), Day: 1},
	{ID: "v-101", Kind: KindVideo, Title: "Smart Home Walkthrough", MediaURL: "https://cdn.review-platform.app/content/v-101.mp4", MinEarning: dec("5.00"), MaxEarning: dec("12.00"), Day: 1},
	{ID: "v-102", Kind: KindVideo, Title: "Specialty Tea Brewing Guide", MediaURL: "https://cdn.review-platform.app/content/v-102.mp4", MinEarning: dec("4.50"), MaxEarning: dec("11.00"), Day: 1},
	{ID: "v-103", Kind: KindVideo, Title: "Electric Scooter Review", MediaURL: "https://cdn.review-platform.app/content/v-103.mp4", MinEarning: dec("5.50"), MaxEarning: dec("13.00"), Day: 1},
	// day 2 rotation
	{ID: "p-201", Kind: KindPhoto, Title: "Scandinavian Furniture Line", MediaURL: "https://cdn.review-platform.app/content/p-201.jpg", MinEarning: dec("2.50"), MaxEarning: dec("7.00"), Day: 2},
	{ID: "p-202", Kind: KindPhoto, Title: "Gourmet Dessert Platter", MediaURL: "https://cdn.review-platform.app/content/p-202.jpg", MinEarning: dec("2.00"), MaxEarning: dec("6.00"), Day: 2},
	{ID: "p-203", Kind: KindPhoto, Title: "Mechanical Keyboard Showcase", MediaURL: "https://cdn.review-platform.app/content/p-203.jpg", MinEarning: dec("3.00"), MaxEarning: dec("8.50"), Day: 2},
	{ID: "p-204", Kind: KindPhoto, Title: "Ceramic Tableware Studio", MediaURL: "https://cdn.review-platform.app/content/p-204.jpg", MinEarning: dec("2.00"), MaxEarning: dec("5.50"), Day: 2},
	{ID: "p-205", Kind: KindPhoto, Title: "Trail Running Footwear", MediaURL: "https://cdn.review-platform.app/content/p-205.jpg", MinEarning: dec("3.00"), MaxEarning: dec("8.00"), Day: 2},
	{ID: "p-206", Kind: KindPhoto, Title: "Indie Bookstore Interior", MediaURL: "https://cdn.review-platform.app/content/p-206.jpg", MinEarning: dec("2.50"), MaxEarning: dec("6.50"), Day: 2},
	{ID: "p-207", Kind: KindPhoto, Title: "Premium Audio Headphones", MediaURL: "https://cdn.review-platform.app/content/p-207.jpg", MinEarning: dec("3.50"), MaxEarning: dec("9.50"), Day: 2},
	{ID: "p-208", Kind: KindPhoto, Title: "Organic Skincare Range", MediaURL: "https://cdn.review-platform.app/content/p-208.jpg", MinEarning: dec("2.00"), MaxEarning: dec("6.00"), Day: 2},
	{ID: "p-209", Kind: KindPhoto, Title: "City Bicycle Commuter Kit", MediaURL: "https://cdn.review-platform.app/content/p-209.jpg", MinEarning: dec("2.50"), MaxEarning: dec("7.50"), Day: 2},
	{ID: "v-201", Kind: KindVideo, Title: "Drone Photography Tutorial", MediaURL: "https://cdn.review-platform.app/content/v-201.mp4", MinEarning: dec("5.00"), MaxEarning: dec("12.50"), Day: 2},
	{ID: "v-202", Kind: KindVideo, Title: "Barista Latte Art Session", MediaURL: "https://cdn.review-platform.app/content/v-202.mp4", MinEarning: dec("4.00"), MaxEarning: dec("10.00"), Day: 2},
	{ID: "v-203", Kind: KindVideo, Title: "Portable Projector Unboxing", MediaURL: "https://cdn.review-platform.app/content/v-203.mp4", MinEarning: dec("5.50"), MaxEarning: dec("13.50"), Day: 2},
}

// Pool returns a copy of the full static content pool.
func Pool() []Item {
	out := make([]Item, len(pool))
	copy(out, pool)
	return out
}

// ItemByID retrieves an item from the pool by its identifier.
func ItemByID(id string) (Item, bool) {
	for _, item := range pool {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// QuestionByStage returns the photo questionnaire entry for a 1-based stage.
func QuestionByStage(stage int) (Question, bool) {
	if stage < 1 || stage > len(PhotoQuestions) {
		return Question{}, false
	}
	return PhotoQuestions[stage-1], true
}
