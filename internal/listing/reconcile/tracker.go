package reconcile

import (
	"reflect"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
)

// Tracker detects unsaved changes against a snapshot baseline. The baseline
// is taken when a draft is first populated from an analysis and reset on each
// successful save. Comparison is structural, not serialized, so it cannot
// fail and quietly report "no changes".
type Tracker struct {
	baseline *domain.Listing
}

func NewTracker(baseline *domain.Listing) *Tracker {
	return &Tracker{baseline: baseline.Clone()}
}

// Reset replaces the baseline after a successful save.
func (t *Tracker) Reset(current *domain.Listing) {
	t.baseline = current.Clone()
}

// Dirty reports whether current differs from the baseline. Timestamps and
// the analysis snapshot are excluded: only user-editable content counts as
// an unsaved change.
func (t *Tracker) Dirty(current *domain.Listing) bool {
	if t.baseline == nil {
		return current != nil
	}
	return !reflect.DeepEqual(editable(t.baseline), editable(current))
}

// editable projects the fields a user can touch in the Review form.
type editableFields struct {
	Title            string
	Condition        int
	Brand            string
	Scale            string
	DCC              string
	Weight           string
	Line             string
	Gauge            string
	RoadName         string
	RoadNumber       string
	LocomotiveType   string
	Phase            string
	DecoderBrand     string
	CouplerType      string
	Lighting         string
	Material         string
	Paint            string
	Packaging        string
	Paperwork        string
	WheelWear        string
	RunningCondition string
	DCCStatus        string
	Length           string
	Width            string
	Height           string
	Description      string
	Features         string
	Defects          string
}

func editable(l *domain.Listing) editableFields {
	if l == nil {
		return editableFields{}
	}
	return editableFields{
		Title:            l.Title,
		Condition:        l.Condition,
		Brand:            l.Brand,
		Scale:            l.Scale,
		DCC:              l.DCC,
		Weight:           l.Weight,
		Line:             l.Line,
		Gauge:            l.Gauge,
		RoadName:         l.RoadName,
		RoadNumber:       l.RoadNumber,
		LocomotiveType:   l.LocomotiveType,
		Phase:            l.Phase,
		DecoderBrand:     l.DecoderBrand,
		CouplerType:      l.CouplerType,
		Lighting:         l.Lighting,
		Material:         l.Material,
		Paint:            l.Paint,
		Packaging:        l.Packaging,
		Paperwork:        l.Paperwork,
		WheelWear:        l.WheelWear,
		RunningCondition: l.RunningCondition,
		DCCStatus:        l.DCCStatus,
		Length:           l.Length,
		Width:            l.Width,
		Height:           l.Height,
		Description:      l.Description,
		Features:         ListToLines(l.Features),
		Defects:          ListToLines(l.Defects),
	}
}
