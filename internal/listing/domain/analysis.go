package domain

// AIAnalysis is a single extraction result snapshot. Every scalar field is a
// pointer: the extractor may omit or fail to produce any of them, and a nil
// field must stay distinguishable from an empty value so the reconciliation
// overlay never clobbers a user edit with an absent result.
//
// A snapshot is superseded wholesale by the next extraction call, never
// merged.
type AIAnalysis struct {
	Title            *string  `json:"title" bson:"title"`
	Brand            *string  `json:"brand" bson:"brand"`
	Line             *string  `json:"line" bson:"line"`
	Scale            *string  `json:"scale" bson:"scale"`
	Gauge            *string  `json:"gauge" bson:"gauge"`
	LocomotiveType   *string  `json:"locomotiveType" bson:"locomotive_type"`
	RoadName         *string  `json:"roadName" bson:"road_name"`
	RoadNumber       *string  `json:"roadNumber" bson:"road_number"`
	ModelNumber      *string  `json:"modelNumber" bson:"model_number"`
	DCC              *string  `json:"dcc" bson:"dcc"`
	DecoderBrand     *string  `json:"decoderBrand" bson:"decoder_brand"`
	Condition        *int     `json:"condition" bson:"condition"`
	ConditionNotes   *string  `json:"conditionNotes" bson:"condition_notes"`
	RunningCondition *string  `json:"runningCondition" bson:"running_condition"`
	Lighting         *string  `json:"lighting" bson:"lighting"`
	Packaging        *string  `json:"packaging" bson:"packaging"`
	Paperwork        *bool    `json:"paperwork" bson:"paperwork"`
	WheelWear        *string  `json:"wheelWear" bson:"wheel_wear"`
	Material         *string  `json:"material" bson:"material"`
	Paint            *string  `json:"paint" bson:"paint"`
	CouplerType      *string  `json:"couplerType" bson:"coupler_type"`
	Features         []string `json:"features" bson:"features"`
	Defects          []string `json:"defects" bson:"defects"`
	Description      *string  `json:"description" bson:"description"`
	EstimatedValue   *string  `json:"estimatedValue" bson:"estimated_value"`
	Confidence       *int     `json:"confidence" bson:"confidence"`
}

// Normalize enforces the snapshot invariants in place: Features/Defects are
// never nil, Condition is nil or in [1,10], Confidence is nil or in [0,100].
// Out-of-range values are dropped rather than clamped, so a nonsense grade
// reads as "not extracted".
func (a *AIAnalysis) Normalize() {
	if a == nil {
		return
	}
	if a.Features == nil {
		a.Features = []string{}
	}
	if a.Defects == nil {
		a.Defects = []string{}
	}
	if a.Condition != nil && (*a.Condition < 1 || *a.Condition > 10) {
		a.Condition = nil
	}
	if a.Confidence != nil && (*a.Confidence < 0 || *a.Confidence > 100) {
		a.Confidence = nil
	}
}

// Clone returns a deep copy, nil in and nil out.
func (a *AIAnalysis) Clone() *AIAnalysis {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Title = copyStr(a.Title)
	cp.Brand = copyStr(a.Brand)
	cp.Line = copyStr(a.Line)
	cp.Scale = copyStr(a.Scale)
	cp.Gauge = copyStr(a.Gauge)
	cp.LocomotiveType = copyStr(a.LocomotiveType)
	cp.RoadName = copyStr(a.RoadName)
	cp.RoadNumber = copyStr(a.RoadNumber)
	cp.ModelNumber = copyStr(a.ModelNumber)
	cp.DCC = copyStr(a.DCC)
	cp.DecoderBrand = copyStr(a.DecoderBrand)
	cp.ConditionNotes = copyStr(a.ConditionNotes)
	cp.RunningCondition = copyStr(a.RunningCondition)
	cp.Lighting = copyStr(a.Lighting)
	cp.Packaging = copyStr(a.Packaging)
	cp.WheelWear = copyStr(a.WheelWear)
	cp.Material = copyStr(a.Material)
	cp.Paint = copyStr(a.Paint)
	cp.CouplerType = copyStr(a.CouplerType)
	cp.Description = copyStr(a.Description)
	cp.EstimatedValue = copyStr(a.EstimatedValue)
	cp.Condition = copyInt(a.Condition)
	cp.Confidence = copyInt(a.Confidence)
	cp.Paperwork = copyBool(a.Paperwork)
	cp.Features = append([]string(nil), a.Features...)
	cp.Defects = append([]string(nil), a.Defects...)
	return &cp
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	cp := *i
	return &cp
}

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	cp := *b
	return &cp
}
