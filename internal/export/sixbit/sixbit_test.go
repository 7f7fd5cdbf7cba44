package sixbit

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func sampleListing() *domain.Listing {
	return &domain.Listing{
		ID:             "l1",
		SKU:            "MTM-000042",
		Status:         domain.StatusApproved,
		Title:          `HO Bowser "Executive" RS-3`,
		Condition:      8,
		Brand:          "Bowser",
		Scale:          "HO",
		DCC:            "DCC with Sound",
		Weight:         "8.5 oz",
		Vendor:         "MTM",
		RoadName:       "Pennsylvania Railroad",
		RoadNumber:     "8595",
		LocomotiveType: "Diesel Locomotive",
		Description:    "Runs & looks great, <tested>.",
		Images: []domain.ListingImage{
			{ID: "i1", URL: "https://img/1.jpg"},
			{ID: "i2", URL: "https://img/2.jpg"},
		},
	}
}

func TestGenerateCSV_HeaderAndPadding(t *testing.T) {
	out := GenerateCSV([]*domain.Listing{sampleListing()})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)

	assert.Equal(t,
		"ItemNumber,Title,ConditionCode,Brand,Scale,Gauge,DCC,Weight,Status,Vendor,Description,RoadName,RoadNumber,LocomotiveType,ImageURL1,ImageURL2,ImageURL3,ImageURL4,ImageURL5",
		lines[0])

	row := lines[1]
	assert.True(t, strings.HasPrefix(row, "MTM-000042,"))
	assert.Contains(t, row, `"HO Bowser ""Executive"" RS-3"`, "internal quotes doubled")
	assert.Contains(t, row, ",C8,Bowser,HO,HO,", "gauge column duplicates scale")
	assert.True(t, strings.HasSuffix(row, "https://img/1.jpg,https://img/2.jpg,,,"),
		"two images, three empty padding columns")
}

func TestGenerateCSV_FieldCountIsStable(t *testing.T) {
	// A listing with no images still emits all 19 columns.
	bare := &domain.Listing{SKU: "MTM-000001", Status: domain.StatusApproved}
	out := GenerateCSV([]*domain.Listing{bare})
	row := strings.Split(out, "\n")[1]
	assert.Equal(t, 18, strings.Count(row, ","), "19 columns separated by 18 commas")
}

func TestConditionCode(t *testing.T) {
	graded := &domain.Listing{Condition: 8}
	assert.Equal(t, "C8", conditionCode(graded))

	ungraded := &domain.Listing{}
	assert.Equal(t, "", conditionCode(ungraded))

	fromSnapshot := &domain.Listing{AIAnalysis: &domain.AIAnalysis{Condition: intPtr(6)}}
	assert.Equal(t, "C6", conditionCode(fromSnapshot))
}

func TestSnapshotFallback(t *testing.T) {
	l := &domain.Listing{
		SKU:    "MTM-000002",
		Status: domain.StatusApproved,
		AIAnalysis: &domain.AIAnalysis{
			Title: strPtr("N Kato SD40-2"),
			Brand: strPtr("Kato"),
			Scale: strPtr("N"),
		},
	}
	r := buildRecord(l)
	assert.Equal(t, "N Kato SD40-2", r.Title)
	assert.Equal(t, "Kato", r.Brand)
	assert.Equal(t, "N", r.Scale)
}

func TestGenerateXML_Structure(t *testing.T) {
	exportedAt := time.Date(2026, 8, 31, 15, 4, 5, 0, time.UTC)
	out := GenerateXML([]*domain.Listing{sampleListing()}, exportedAt)

	assert.Contains(t, out, "<SixBitExport>")
	assert.Contains(t, out, "<ExportDate>2026-08-31T15:04:05Z</ExportDate>")
	assert.Contains(t, out, "<TotalItems>1</TotalItems>")
	assert.Contains(t, out, `<Title><![CDATA[HO Bowser "Executive" RS-3]]></Title>`, "title is CDATA, not escaped")
	assert.Contains(t, out, "<Description><![CDATA[Runs & looks great, <tested>.]]></Description>")
	assert.Contains(t, out, "<RoadName>Pennsylvania Railroad</RoadName>")
	assert.Contains(t, out, "<Gauge>HO</Gauge>")

	// Only present images get tags; no padding.
	assert.Contains(t, out, "<ImageURL1>https://img/1.jpg</ImageURL1>")
	assert.Contains(t, out, "<ImageURL2>https://img/2.jpg</ImageURL2>")
	assert.NotContains(t, out, "<ImageURL3>")
}

func TestGenerateXML_EscapesEntityFields(t *testing.T) {
	l := sampleListing()
	l.RoadName = `A&B <Rail> "Line"`
	out := GenerateXML([]*domain.Listing{l}, time.Now())
	assert.Contains(t, out, "<RoadName>A&amp;B &lt;Rail&gt; &quot;Line&quot;</RoadName>")
}

func TestGenerateXML_OnlyExportsFirstFiveImages(t *testing.T) {
	l := sampleListing()
	l.Images = nil
	for i := 0; i < 7; i++ {
		l.Images = append(l.Images, domain.ListingImage{URL: "https://img/n.jpg"})
	}
	out := GenerateXML([]*domain.Listing{l}, time.Now())
	assert.Contains(t, out, "<ImageURL5>")
	assert.NotContains(t, out, "<ImageURL6>")
}

func TestFilenamesEmbedDate(t *testing.T) {
	day := time.Date(2026, 8, 31, 23, 59, 0, 0, time.Local)
	assert.Equal(t, "sixbit-export-2026-08-31.csv", CSVFilename(day))
	assert.Equal(t, "sixbit-export-2026-08-31.xml", XMLFilename(day))
}
