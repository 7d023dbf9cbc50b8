package dataprocessing

import (
	"strings"

	"mailpulse/pkg/contracts/domain"
)

// ApplyFilters returns the subset of records passing every active filter
// dimension. Dimensions combine with AND; within a dimension the selected
// values combine with OR, and an empty selection matches everything. The
// result is a subsequence of the input, relative order preserved.
func ApplyFilters(records []domain.NormalizedRecord, criteria domain.FilterCriteria) []domain.NormalizedRecord {
	filtered := make([]domain.NormalizedRecord, 0, len(records))

	for _, record := range records {
		if !matchesCampaign(record, criteria.Campaigns) {
			continue
		}
		if !matchesDateRange(record, criteria) {
			continue
		}
		if !matchesProvider(record, criteria.Providers) {
			continue
		}
		filtered = append(filtered, record)
	}

	return filtered
}

// matchesCampaign checks the campaign dimension. With an active selection,
// only rows carrying one of the selected campaign values pass; rows with no
// campaign field fail. An empty selection passes every row.
func matchesCampaign(record domain.NormalizedRecord, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	campaign, ok := record.Value(domain.FieldCampaignName)
	if !ok {
		return false
	}
	return contains(selected, campaign)
}

// matchesDateRange checks the date dimension. The filter is active only
// when both bounds are present. Rows without a timestamp pass (they are not
// excludable rather than silently dropped), and so do rows whose timestamp
// does not parse: the policy is fail-open, never exclusion on bad data.
func matchesDateRange(record domain.NormalizedRecord, criteria domain.FilterCriteria) bool {
	if !criteria.DateRangeActive() {
		return true
	}
	value, ok := record.Value(domain.FieldTimestamp)
	if !ok {
		return true
	}
	t, ok := parseTimestamp(value)
	if !ok {
		return true
	}
	return !t.Before(*criteria.DateFrom) && !t.After(*criteria.DateTo)
}

// matchesProvider checks the provider dimension, derived from the email
// address domain. Rows without an email address pass; rows with one are
// checked for membership in the selected set.
func matchesProvider(record domain.NormalizedRecord, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	email, ok := record.Value(domain.FieldEmailAddress)
	if !ok {
		return true
	}
	provider := ProviderFromEmail(email)
	if provider == "" {
		return false
	}
	return contains(selected, provider)
}

// ProviderFromEmail derives the provider token from an email address: the
// part after "@" up to the first ".". Returns "" when the address has no
// domain part.
func ProviderFromEmail(email string) string {
	_, domainPart, found := strings.Cut(email, "@")
	if !found || domainPart == "" {
		return ""
	}
	provider, _, _ := strings.Cut(domainPart, ".")
	return provider
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
