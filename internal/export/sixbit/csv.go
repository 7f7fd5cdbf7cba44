package sixbit

import (
	"strings"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
)

// csvHeader is byte-exact per the SixBit import template; Gauge duplicates
// the Scale column for model trains.
const csvHeader = "ItemNumber,Title,ConditionCode,Brand,Scale,Gauge,DCC,Weight,Status,Vendor,Description,RoadName,RoadNumber,LocomotiveType,ImageURL1,ImageURL2,ImageURL3,ImageURL4,ImageURL5"

// GenerateCSV renders the SixBit CSV document. Title and Description are
// always wrapped in double quotes with internal quotes doubled; the five
// ImageURL columns are right-padded with empty strings.
func GenerateCSV(listings []*domain.Listing) string {
	var b strings.Builder
	b.WriteString(csvHeader)

	for _, l := range listings {
		r := buildRecord(l)
		fields := []string{
			r.ItemNumber,
			quote(r.Title),
			r.ConditionCode,
			r.Brand,
			r.Scale,
			r.Scale, // Gauge
			r.DCC,
			r.Weight,
			r.Status,
			r.Vendor,
			quote(r.Description),
			r.RoadName,
			r.RoadNumber,
			r.LocomotiveType,
		}
		for i := 0; i < maxImageURLs; i++ {
			if i < len(r.ImageURLs) {
				fields = append(fields, r.ImageURLs[i])
			} else {
				fields = append(fields, "")
			}
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(fields, ","))
	}

	return b.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
