package domain

import "time"

type ListingStatus string

const (
	// StatusPending is set when a vendor submits a draft for admin review.
	StatusPending ListingStatus = "pending"
	// StatusApproved is set when an admin approves a draft; the listing
	// enters the export queue.
	StatusApproved ListingStatus = "approved"
	// StatusExported is terminal and never reverts.
	StatusExported ListingStatus = "exported"
)

// ListingImage is one uploaded photograph. ExternalRef is the blob-store
// deletion handle; it is empty when the image fell back to an inline data URI.
type ListingImage struct {
	ID          string    `json:"id" bson:"id"`
	Name        string    `json:"name" bson:"name"`
	MIMEType    string    `json:"mimeType" bson:"mime_type"`
	ByteSize    int64     `json:"byteSize" bson:"byte_size"`
	URL         string    `json:"url" bson:"url"`
	ExternalRef string    `json:"externalRef,omitempty" bson:"external_ref,omitempty"`
	PixelWidth  int       `json:"pixelWidth,omitempty" bson:"pixel_width,omitempty"`
	PixelHeight int       `json:"pixelHeight,omitempty" bson:"pixel_height,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt" bson:"uploaded_at"`
}

// Inline reports whether the image is stored as a self-contained data URI
// rather than in the external blob store.
func (img ListingImage) Inline() bool { return img.ExternalRef == "" }

// Listing is the durable unit of work. A Review draft is a detached *Listing
// with an empty ID; it becomes a stored record only on Approve/Submit.
// Condition is 0 when ungraded (valid grades are 1..10).
type Listing struct {
	ID     string        `json:"id" bson:"_id"`
	SKU    string        `json:"sku" bson:"sku"`
	Status ListingStatus `json:"status" bson:"status"`

	Title     string `json:"title" bson:"title"`
	Condition int    `json:"condition" bson:"condition"`
	Brand     string `json:"brand" bson:"brand"`
	Scale     string `json:"scale" bson:"scale"`
	DCC       string `json:"dcc" bson:"dcc"`
	Weight    string `json:"weight" bson:"weight"`
	Vendor    string `json:"vendor,omitempty" bson:"vendor,omitempty"`

	// Item specifics.
	Line             string `json:"line,omitempty" bson:"line,omitempty"`
	Gauge            string `json:"gauge,omitempty" bson:"gauge,omitempty"`
	RoadName         string `json:"roadName,omitempty" bson:"road_name,omitempty"`
	RoadNumber       string `json:"roadNumber,omitempty" bson:"road_number,omitempty"`
	LocomotiveType   string `json:"locomotiveType,omitempty" bson:"locomotive_type,omitempty"`
	Phase            string `json:"phase,omitempty" bson:"phase,omitempty"`
	DecoderBrand     string `json:"decoderBrand,omitempty" bson:"decoder_brand,omitempty"`
	CouplerType      string `json:"couplerType,omitempty" bson:"coupler_type,omitempty"`
	Lighting         string `json:"lighting,omitempty" bson:"lighting,omitempty"`
	Material         string `json:"material,omitempty" bson:"material,omitempty"`
	Paint            string `json:"paint,omitempty" bson:"paint,omitempty"`
	Packaging        string `json:"packaging,omitempty" bson:"packaging,omitempty"`
	Paperwork        string `json:"paperwork,omitempty" bson:"paperwork,omitempty"`
	WheelWear        string `json:"wheelWear,omitempty" bson:"wheel_wear,omitempty"`
	RunningCondition string `json:"runningCondition,omitempty" bson:"running_condition,omitempty"`
	DCCStatus        string `json:"dccStatus,omitempty" bson:"dcc_status,omitempty"`

	// Dimensions.
	Length string `json:"length,omitempty" bson:"length,omitempty"`
	Width  string `json:"width,omitempty" bson:"width,omitempty"`
	Height string `json:"height,omitempty" bson:"height,omitempty"`

	Description string   `json:"description,omitempty" bson:"description,omitempty"`
	Features    []string `json:"features,omitempty" bson:"features,omitempty"`
	Defects     []string `json:"defects,omitempty" bson:"defects,omitempty"`

	Images []ListingImage `json:"images" bson:"images"`

	// AIAnalysis is the read-only provenance snapshot used to generate this
	// listing; it is never mutated after Approve.
	AIAnalysis *AIAnalysis `json:"aiAnalysis,omitempty" bson:"ai_analysis,omitempty"`
	Confidence int         `json:"confidence,omitempty" bson:"confidence,omitempty"`

	CreatedAt   time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" bson:"updated_at"`
	ProcessedAt *time.Time `json:"processedAt,omitempty" bson:"processed_at,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty" bson:"approved_at,omitempty"`
	ExportedAt  *time.Time `json:"exportedAt,omitempty" bson:"exported_at,omitempty"`
}

// Clone returns a deep copy. The workflow hands detached copies to callers so
// the record store keeps exclusive ownership of the canonical structs.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	cp := *l
	cp.Features = append([]string(nil), l.Features...)
	cp.Defects = append([]string(nil), l.Defects...)
	cp.Images = append([]ListingImage(nil), l.Images...)
	cp.AIAnalysis = l.AIAnalysis.Clone()
	cp.ProcessedAt = copyTime(l.ProcessedAt)
	cp.ApprovedAt = copyTime(l.ApprovedAt)
	cp.ExportedAt = copyTime(l.ExportedAt)
	return &cp
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// Stats is the read-side aggregate over the record store. "Today" means
// calendar-day equality with the local date at call time, not a rolling
// 24h window.
type Stats struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	Approved       int `json:"approved"`
	Exported       int `json:"exported"`
	TodayProcessed int `json:"todayProcessed"`
	TodayApproved  int `json:"todayApproved"`
}
