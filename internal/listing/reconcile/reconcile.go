// Package reconcile merges extraction snapshots into an editable listing
// draft without clobbering values the user already entered.
package reconcile

import (
	"regexp"
	"strings"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
)

const (
	PaperworkIncluded    = "Included"
	PaperworkNotIncluded = "Not Included"

	RunsWell              = "Runs well"
	RunningConditionUnset = "N/A"
)

// reportingMark matches a 2-4 letter railroad ownership code prefixed to an
// equipment number, e.g. the "BN" in "BN1574" or "UP 1234".
var reportingMark = regexp.MustCompile(`^[A-Za-z]{2,4}[\s.-]*`)

// NormalizeRoadNumber strips a leading reporting mark and surrounding
// whitespace, keeping the trailing number. A non-empty input never normalizes
// to empty: if stripping would leave nothing, the original value is kept.
func NormalizeRoadNumber(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	stripped := strings.TrimSpace(reportingMark.ReplaceAllString(trimmed, ""))
	if stripped == "" {
		return trimmed
	}
	return stripped
}

// PaperworkLabel projects the extractor's paperwork boolean onto the draft's
// tri-state label. The reverse projection does not exist; once set, the
// draft's string is authoritative.
func PaperworkLabel(included bool) string {
	if included {
		return PaperworkIncluded
	}
	return PaperworkNotIncluded
}

// DeriveRunningCondition fills the running-condition string from the numeric
// grade. It runs exactly once, at the approve boundary, and never overwrites
// an explicit value.
func DeriveRunningCondition(draft *domain.Listing) {
	if draft.RunningCondition != "" {
		return
	}
	if draft.Condition >= 6 {
		draft.RunningCondition = RunsWell
	} else {
		draft.RunningCondition = RunningConditionUnset
	}
}

// Overlay applies an extraction snapshot onto a draft, field by field. Every
// non-nil analysis field overwrites the draft value; nil fields leave the
// draft untouched, so a manual edit survives a re-run where the extractor was
// uncertain. Empty arrays count as absent for the same reason. Applying the
// same snapshot twice is a no-op on the second pass.
func Overlay(draft *domain.Listing, analysis *domain.AIAnalysis) {
	if draft == nil || analysis == nil {
		return
	}

	setStr(&draft.Title, analysis.Title)
	setStr(&draft.Brand, analysis.Brand)
	setStr(&draft.Line, analysis.Line)
	setStr(&draft.Scale, analysis.Scale)
	setStr(&draft.Gauge, analysis.Gauge)
	setStr(&draft.LocomotiveType, analysis.LocomotiveType)
	setStr(&draft.RoadName, analysis.RoadName)
	setStr(&draft.DCC, analysis.DCC)
	setStr(&draft.DecoderBrand, analysis.DecoderBrand)
	setStr(&draft.RunningCondition, analysis.RunningCondition)
	setStr(&draft.Lighting, analysis.Lighting)
	setStr(&draft.Packaging, analysis.Packaging)
	setStr(&draft.WheelWear, analysis.WheelWear)
	setStr(&draft.Material, analysis.Material)
	setStr(&draft.Paint, analysis.Paint)
	setStr(&draft.CouplerType, analysis.CouplerType)
	setStr(&draft.Description, analysis.Description)

	if analysis.RoadNumber != nil {
		draft.RoadNumber = NormalizeRoadNumber(*analysis.RoadNumber)
	}
	if analysis.Paperwork != nil {
		draft.Paperwork = PaperworkLabel(*analysis.Paperwork)
	}
	if analysis.Condition != nil {
		draft.Condition = *analysis.Condition
	}
	if analysis.Confidence != nil {
		draft.Confidence = *analysis.Confidence
	}
	if len(analysis.Features) > 0 {
		draft.Features = append([]string(nil), analysis.Features...)
	}
	if len(analysis.Defects) > 0 {
		draft.Defects = append([]string(nil), analysis.Defects...)
	}
}

func setStr(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// LinesToList converts newline-delimited edit text to an ordered string
// slice. Blank lines are dropped; duplicates and ordering are preserved
// exactly as entered.
func LinesToList(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ListToLines is the edit-side projection of an array field.
func ListToLines(items []string) string {
	return strings.Join(items, "\n")
}
