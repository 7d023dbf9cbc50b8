package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailpulse/pkg/contracts/domain"
)

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    map[domain.Field]string
	}{
		{
			name: "typical campaign export",
			headers: []string{
				"Email Address", "Delivery Status", "Opened Time", "Clicked Time",
				"Campaign Name", "Sent Date", "Bounce Type", "Country", "Device", "Subject Line",
			},
			want: map[domain.Field]string{
				domain.FieldEmailAddress: "Email Address",
				domain.FieldStatus:       "Delivery Status",
				domain.FieldOpenTime:     "Opened Time",
				domain.FieldClickTime:    "Clicked Time",
				domain.FieldCampaignName: "Campaign Name",
				domain.FieldTimestamp:    "Sent Date",
				domain.FieldBounceType:   "Bounce Type",
				domain.FieldLocation:     "Country",
				domain.FieldDevice:       "Device",
				domain.FieldSubject:      "Subject Line",
			},
		},
		{
			name:    "unrecognizable headers leave fields unmapped",
			headers: []string{"col_a", "col_b", "col_c"},
			want:    map[domain.Field]string{},
		},
		{
			name:    "no headers",
			headers: nil,
			want:    map[domain.Field]string{},
		},
		{
			name:    "snake case variants",
			headers: []string{"email_address", "open_time", "click_date", "campaign_id"},
			want: map[domain.Field]string{
				domain.FieldEmailAddress: "email_address",
				domain.FieldOpenTime:     "open_time",
				domain.FieldClickTime:    "click_date",
				domain.FieldCampaignName: "campaign_id",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapping := DetectColumns(tt.headers)

			assert.Equal(t, domain.FieldMapping(tt.want), mapping)
		})
	}
}

func TestDetectColumns_MappedColumnsComeFromInput(t *testing.T) {
	headers := []string{"recipient", "status", "sent_time", "geo"}

	mapping := DetectColumns(headers)

	require.NotEmpty(t, mapping)
	for field, column := range mapping {
		assert.True(t, domain.IsValidField(field), "unexpected field %q", field)
		assert.Contains(t, headers, column, "field %q mapped outside the header list", field)
	}
}

func TestDetectColumns_ExactNameBeatsPatternMatch(t *testing.T) {
	// "emailAddress" scores 3 per matching pattern, "recipient_info" only 1.
	mapping := DetectColumns([]string{"recipient_info", "emailAddress"})

	assert.Equal(t, "emailAddress", mapping[domain.FieldEmailAddress])
}

func TestDetectColumns_TieKeepsFirstHeader(t *testing.T) {
	// Both headers match exactly one emailAddress pattern each.
	mapping := DetectColumns([]string{"recipient_id", "subscriber_id"})

	assert.Equal(t, "recipient_id", mapping[domain.FieldEmailAddress])
}

func TestDetectColumns_SharedHeaderMayServeSeveralFields(t *testing.T) {
	// No mutual exclusion between fields: a single header is a legitimate
	// best guess for more than one of them.
	mapping := DetectColumns([]string{"open timestamp"})

	assert.Equal(t, "open timestamp", mapping[domain.FieldOpenTime])
	assert.Equal(t, "open timestamp", mapping[domain.FieldTimestamp])
}
