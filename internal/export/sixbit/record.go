// Package sixbit serializes approved listings into the fixed CSV/XML file
// formats consumed by the SixBit listing manager. Both formats are byte-level
// contracts; do not reach for generic encoders here.
package sixbit

import (
	"fmt"
	"time"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
)

// maxImageURLs is fixed by the SixBit import template: CSV always carries
// five image columns, and only the first five images ever export.
const maxImageURLs = 5

// record is one export row, flattened and enriched: empty listing fields
// fall back to the attached extraction snapshot so a user who accepted the
// AI output without editing still exports complete rows.
type record struct {
	ItemNumber     string
	Title          string
	ConditionCode  string
	Brand          string
	Scale          string
	DCC            string
	Weight         string
	Status         string
	Vendor         string
	Description    string
	RoadName       string
	RoadNumber     string
	LocomotiveType string
	ImageURLs      []string
}

func buildRecord(l *domain.Listing) record {
	ai := l.AIAnalysis

	urls := make([]string, 0, maxImageURLs)
	for _, img := range l.Images {
		if len(urls) == maxImageURLs {
			break
		}
		urls = append(urls, img.URL)
	}

	return record{
		ItemNumber:     l.SKU,
		Title:          fallback(l.Title, aiStr(ai, func(a *domain.AIAnalysis) *string { return a.Title })),
		ConditionCode:  conditionCode(l),
		Brand:          fallback(l.Brand, aiStr(ai, func(a *domain.AIAnalysis) *string { return a.Brand })),
		Scale:          fallback(l.Scale, aiStr(ai, func(a *domain.AIAnalysis) *string { return a.Scale })),
		DCC:            fallback(l.DCC, aiStr(ai, func(a *domain.AIAnalysis) *string { return a.DCC })),
		Weight:         l.Weight,
		Status:         string(l.Status),
		Vendor:         l.Vendor,
		Description:    fallback(l.Description, aiStr(ai, func(a *domain.AIAnalysis) *string { return a.Description })),
		RoadName:       fallback(l.RoadName, aiStr(ai, func(a *domain.AIAnalysis) *string { return a.RoadName })),
		RoadNumber:     fallback(l.RoadNumber, aiStr(ai, func(a *domain.AIAnalysis) *string { return a.RoadNumber })),
		LocomotiveType: fallback(l.LocomotiveType, aiStr(ai, func(a *domain.AIAnalysis) *string { return a.LocomotiveType })),
		ImageURLs:      urls,
	}
}

// conditionCode derives the SixBit code from the numeric grade, falling back
// to the snapshot grade; no grade means an empty code.
func conditionCode(l *domain.Listing) string {
	grade := l.Condition
	if grade == 0 && l.AIAnalysis != nil && l.AIAnalysis.Condition != nil {
		grade = *l.AIAnalysis.Condition
	}
	if grade == 0 {
		return ""
	}
	return fmt.Sprintf("C%d", grade)
}

func fallback(value, alt string) string {
	if value != "" {
		return value
	}
	return alt
}

func aiStr(ai *domain.AIAnalysis, pick func(*domain.AIAnalysis) *string) string {
	if ai == nil {
		return ""
	}
	if s := pick(ai); s != nil {
		return *s
	}
	return ""
}

// CSVFilename and XMLFilename embed the export date.
func CSVFilename(now time.Time) string {
	return fmt.Sprintf("sixbit-export-%s.csv", now.Format("2006-01-02"))
}

func XMLFilename(now time.Time) string {
	return fmt.Sprintf("sixbit-export-%s.xml", now.Format("2006-01-02"))
}
