package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtm-trainworks/listing-engine/internal/listing/domain"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestNormalizeRoadNumber(t *testing.T) {
	cases := map[string]string{
		"BN1574":   "1574",
		"UP 1234":  "1234",
		"1234":     "1234",
		"":         "",
		"BNSF 5678": "5678",
		"  UP 99 ": "99",
		// Stripping must never turn a non-empty input into an empty one.
		"UP":   "UP",
		"BNSF": "BNSF",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeRoadNumber(in), "input %q", in)
	}
}

func TestOverlay_NullPreserving(t *testing.T) {
	draft := &domain.Listing{
		Brand:    "Athearn",
		RoadName: "Santa Fe",
		Features: []string{"Metal wheels"},
	}
	analysis := &domain.AIAnalysis{
		Brand: strPtr("Kato"),
		Scale: strPtr("1:160"),
		Gauge: strPtr("N"),
		// RoadName deliberately nil.
	}
	analysis.Normalize()

	Overlay(draft, analysis)

	assert.Equal(t, "Kato", draft.Brand)
	assert.Equal(t, "1:160", draft.Scale)
	assert.Equal(t, "N", draft.Gauge)
	assert.Equal(t, "Santa Fe", draft.RoadName, "nil analysis field must not clobber the draft")
	assert.Equal(t, []string{"Metal wheels"}, draft.Features, "empty analysis array counts as absent")
}

func TestOverlay_Idempotent(t *testing.T) {
	analysis := &domain.AIAnalysis{
		Brand:      strPtr("Bowser"),
		RoadNumber: strPtr("PRR 8595"),
		Condition:  intPtr(7),
		Paperwork:  boolPtr(true),
		Features:   []string{"LED lighting", "Sprung trucks"},
	}
	analysis.Normalize()

	once := &domain.Listing{Title: "draft"}
	Overlay(once, analysis)
	twice := once.Clone()
	Overlay(twice, analysis)

	assert.Equal(t, once, twice)
}

func TestOverlay_RoadNumberAndPaperworkProjection(t *testing.T) {
	draft := &domain.Listing{}
	analysis := &domain.AIAnalysis{
		RoadNumber: strPtr("BN1574"),
		Paperwork:  boolPtr(false),
	}

	Overlay(draft, analysis)

	assert.Equal(t, "1574", draft.RoadNumber)
	assert.Equal(t, PaperworkNotIncluded, draft.Paperwork)
}

func TestDeriveRunningCondition(t *testing.T) {
	wellGraded := &domain.Listing{Condition: 7}
	DeriveRunningCondition(wellGraded)
	assert.Equal(t, RunsWell, wellGraded.RunningCondition)

	poorlyGraded := &domain.Listing{Condition: 3}
	DeriveRunningCondition(poorlyGraded)
	assert.Equal(t, RunningConditionUnset, poorlyGraded.RunningCondition)

	explicit := &domain.Listing{Condition: 9, RunningCondition: "Tested, runs rough"}
	DeriveRunningCondition(explicit)
	assert.Equal(t, "Tested, runs rough", explicit.RunningCondition, "explicit value is never recomputed")
}

func TestAnalysisNormalize_Ranges(t *testing.T) {
	a := &domain.AIAnalysis{
		Condition:  intPtr(14),
		Confidence: intPtr(-3),
	}
	a.Normalize()

	assert.Nil(t, a.Condition, "out-of-range grade reads as not extracted")
	assert.Nil(t, a.Confidence)
	assert.NotNil(t, a.Features)
	assert.NotNil(t, a.Defects)
}

func TestLinesToList(t *testing.T) {
	got := LinesToList("Metal wheels\n\n  Detailed underframe \nMetal wheels\n")
	assert.Equal(t, []string{"Metal wheels", "Detailed underframe", "Metal wheels"}, got,
		"blank lines dropped, duplicates and order preserved")
	assert.Equal(t, []string{}, LinesToList(""))
}

func TestTracker_Dirty(t *testing.T) {
	draft := &domain.Listing{Title: "HO Bowser RS-3", Features: []string{"DCC"}}
	tracker := NewTracker(draft)

	assert.False(t, tracker.Dirty(draft))

	draft.Title = "HO Bowser ALCO RS-3"
	assert.True(t, tracker.Dirty(draft))

	tracker.Reset(draft)
	assert.False(t, tracker.Dirty(draft))

	draft.Features = append(draft.Features, "Sound")
	assert.True(t, tracker.Dirty(draft))
}

func TestTracker_IgnoresNonEditableFields(t *testing.T) {
	draft := &domain.Listing{Title: "x"}
	tracker := NewTracker(draft)

	draft.SKU = "MTM-000001"
	draft.Status = domain.StatusApproved
	assert.False(t, tracker.Dirty(draft), "metadata stamps are not unsaved changes")
}
