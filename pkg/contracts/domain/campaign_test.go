package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsValidField(t *testing.T) {
	for _, f := range Fields {
		assert.True(t, IsValidField(f), "field %q should be valid", f)
	}
	assert.False(t, IsValidField("emailaddress"))
	assert.False(t, IsValidField(""))
	assert.False(t, IsValidField("ticker"))
}

func TestFieldMappingColumn(t *testing.T) {
	mapping := FieldMapping{
		FieldEmailAddress: "Email",
		FieldStatus:       "",
	}

	col, ok := mapping.Column(FieldEmailAddress)
	assert.True(t, ok)
	assert.Equal(t, "Email", col)

	// Empty string mapping counts as unmapped
	_, ok = mapping.Column(FieldStatus)
	assert.False(t, ok)

	_, ok = mapping.Column(FieldCampaignName)
	assert.False(t, ok)
}

func TestNormalizedRecordValue(t *testing.T) {
	record := NormalizedRecord{
		FieldEmailAddress: "alice@gmail.com",
		FieldStatus:       "",
	}

	v, ok := record.Value(FieldEmailAddress)
	assert.True(t, ok)
	assert.Equal(t, "alice@gmail.com", v)

	// Empty cells are treated as absent
	_, ok = record.Value(FieldStatus)
	assert.False(t, ok)
	assert.False(t, record.Has(FieldStatus))

	assert.True(t, record.Has(FieldEmailAddress))
	assert.False(t, record.Has(FieldCampaignName))
}

func TestFilterCriteriaDateRangeActive(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.False(t, FilterCriteria{}.DateRangeActive())
	assert.False(t, FilterCriteria{DateFrom: &from}.DateRangeActive())
	assert.False(t, FilterCriteria{DateTo: &to}.DateRangeActive())
	assert.True(t, FilterCriteria{DateFrom: &from, DateTo: &to}.DateRangeActive())
}
