package domain

import (
	"time"
)

// Field identifies one of the fixed semantic attributes the pipeline
// understands, independent of how source columns are named.
type Field string

const (
	FieldEmailAddress Field = "emailAddress"
	FieldStatus       Field = "status"
	FieldOpenTime     Field = "openTime"
	FieldClickTime    Field = "clickTime"
	FieldCampaignName Field = "campaignName"
	FieldTimestamp    Field = "timestamp"
	FieldBounceType   Field = "bounceType"
	FieldLocation     Field = "location"
	FieldDevice       Field = "device"
	FieldSubject      Field = "subject"
)

// Fields lists every semantic field in canonical order. The set is fixed;
// mappings and normalized records never contain keys outside it.
var Fields = []Field{
	FieldEmailAddress,
	FieldStatus,
	FieldOpenTime,
	FieldClickTime,
	FieldCampaignName,
	FieldTimestamp,
	FieldBounceType,
	FieldLocation,
	FieldDevice,
	FieldSubject,
}

// IsValidField reports whether field is a member of the semantic field set.
func IsValidField(field Field) bool {
	for _, f := range Fields {
		if f == field {
			return true
		}
	}
	return false
}

// RawRecord is one ingested row: source column name to cell value, exactly
// as decoded from the file. An absent key means the cell was missing.
type RawRecord map[string]string

// FieldMapping assigns each semantic field a source column name. A field
// absent from the map (or mapped to the empty string) is unmapped and
// yields no value in any normalized record.
type FieldMapping map[Field]string

// Column returns the mapped source column for f and whether the field is
// mapped at all.
func (m FieldMapping) Column(f Field) (string, bool) {
	col, ok := m[f]
	if !ok || col == "" {
		return "", false
	}
	return col, true
}

// NormalizedRecord is a row reshaped onto the semantic schema. An absent
// field means the source column was unmapped or missing in that row; values
// are copied verbatim with no coercion.
type NormalizedRecord map[Field]string

// Value returns the field's value and whether it is present and non-empty.
// Empty cells are treated the same as absent ones everywhere downstream.
func (r NormalizedRecord) Value(f Field) (string, bool) {
	v, ok := r[f]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Has reports whether the field carries a non-empty value.
func (r NormalizedRecord) Has(f Field) bool {
	_, ok := r.Value(f)
	return ok
}

// FilterCriteria narrows a normalized record set. An empty selection slice
// means "match all", never "match none"; the date interval is active only
// when both bounds are set.
type FilterCriteria struct {
	Campaigns []string   `json:"campaigns,omitempty"`
	DateFrom  *time.Time `json:"date_from,omitempty"`
	DateTo    *time.Time `json:"date_to,omitempty"`
	Providers []string   `json:"providers,omitempty"`
}

// DateRangeActive reports whether both interval bounds are present.
func (c FilterCriteria) DateRangeActive() bool {
	return c.DateFrom != nil && c.DateTo != nil
}

// EngagementPoint is one date bucket of the time-series breakdown.
type EngagementPoint struct {
	Date   string `json:"date"`
	Opens  int    `json:"opens"`
	Clicks int    `json:"clicks"`
}

// HourCount is one hour-of-day bucket of the opens histogram.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// CampaignStats is the per-campaign comparison entry.
type CampaignStats struct {
	Campaign  string  `json:"campaign"`
	Sent      int     `json:"sent"`
	Opened    int     `json:"opened"`
	Clicked   int     `json:"clicked"`
	OpenRate  float64 `json:"open_rate"`
	ClickRate float64 `json:"click_rate"`
}

// LocationStats is the per-location breakdown entry. Records with no
// location never contribute here.
type LocationStats struct {
	Location string `json:"location"`
	Opens    int    `json:"opens"`
	Clicks   int    `json:"clicks"`
}

// AggregateSummary is the pipeline's sole output: scalar totals, derived
// rates, bounce classification counts, and the four ordered breakdowns.
// Created fresh on every pipeline run and never mutated after return.
type AggregateSummary struct {
	Records []NormalizedRecord `json:"records"`

	TotalSent      int     `json:"total_sent"`
	TotalDelivered int     `json:"total_delivered"`
	TotalOpened    int     `json:"total_opened"`
	TotalClicked   int     `json:"total_clicked"`
	OpenRate       float64 `json:"open_rate"`
	ClickRate      float64 `json:"click_rate"`
	BounceRate     float64 `json:"bounce_rate"`
	SoftBounces    int     `json:"soft_bounces"`
	HardBounces    int     `json:"hard_bounces"`

	EngagementOverTime []EngagementPoint `json:"engagement_over_time"`
	OpensByHour        []HourCount       `json:"opens_by_hour"`
	CampaignComparison []CampaignStats   `json:"campaign_comparison"`
	LocationData       []LocationStats   `json:"location_data"`
}
