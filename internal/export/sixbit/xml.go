package sixbit

import (
	"fmt"
	"strings"
	"time"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
)

// GenerateXML renders the SixBit XML document. Title and Description are
// CDATA-wrapped; every other text field is entity-escaped. ImageURLn tags
// appear only for images actually present, unlike the padded CSV columns.
func GenerateXML(listings []*domain.Listing, exportedAt time.Time) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<SixBitExport>\n")
	fmt.Fprintf(&b, "  <ExportDate>%s</ExportDate>\n", exportedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "  <TotalItems>%d</TotalItems>\n", len(listings))
	b.WriteString("  <Items>\n")

	for _, l := range listings {
		r := buildRecord(l)
		b.WriteString("    <Item>\n")
		writeTag(&b, "ItemNumber", r.ItemNumber)
		writeCDATA(&b, "Title", r.Title)
		writeTag(&b, "ConditionCode", r.ConditionCode)
		writeTag(&b, "Brand", r.Brand)
		writeTag(&b, "Scale", r.Scale)
		writeTag(&b, "Gauge", r.Scale)
		writeTag(&b, "DCC", r.DCC)
		writeTag(&b, "Weight", r.Weight)
		writeTag(&b, "Status", r.Status)
		if r.Vendor != "" {
			writeTag(&b, "Vendor", r.Vendor)
		}
		writeCDATA(&b, "Description", r.Description)
		writeTag(&b, "RoadName", r.RoadName)
		writeTag(&b, "RoadNumber", r.RoadNumber)
		writeTag(&b, "LocomotiveType", r.LocomotiveType)
		for i, url := range r.ImageURLs {
			writeTag(&b, fmt.Sprintf("ImageURL%d", i+1), url)
		}
		b.WriteString("    </Item>\n")
	}

	b.WriteString("  </Items>\n")
	b.WriteString("</SixBitExport>\n")
	return b.String()
}

func writeTag(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "      <%s>%s</%s>\n", name, escapeXML(value), name)
}

func writeCDATA(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "      <%s><![CDATA[%s]]></%s>\n", name, value, name)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
