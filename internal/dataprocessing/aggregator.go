package dataprocessing

import (
	"sort"
	"strings"

	"mailpulse/pkg/contracts/domain"
)

const unknownBucket = "Unknown"

// Aggregate computes the full summary for a filtered record set. It never
// fails: malformed values degrade to the unknown/skip path of their
// breakdown, so any input, including an empty set, yields a complete
// summary. The input set is carried on the summary for downstream
// consumers needing row-level access.
func Aggregate(records []domain.NormalizedRecord) domain.AggregateSummary {
	summary := domain.AggregateSummary{
		Records: records,
	}

	for _, record := range records {
		summary.TotalSent++
		if isDelivered(record) {
			summary.TotalDelivered++
		}
		if record.Has(domain.FieldOpenTime) {
			summary.TotalOpened++
		}
		if record.Has(domain.FieldClickTime) {
			summary.TotalClicked++
		}
		soft, hard := classifyBounce(record)
		if soft {
			summary.SoftBounces++
		}
		if hard {
			summary.HardBounces++
		}
	}

	summary.OpenRate = rate(summary.TotalOpened, summary.TotalDelivered)
	summary.ClickRate = rate(summary.TotalClicked, summary.TotalDelivered)
	summary.BounceRate = rate(summary.TotalSent-summary.TotalDelivered, summary.TotalSent)

	summary.EngagementOverTime = engagementOverTime(records)
	summary.OpensByHour = opensByHour(records)
	summary.CampaignComparison = campaignComparison(records)
	summary.LocationData = locationData(records)

	return summary
}

// isDelivered reports whether the record counts as delivered: its status,
// case-insensitively, is neither "bounced" nor "failed". An absent status
// counts as delivered.
func isDelivered(record domain.NormalizedRecord) bool {
	status, ok := record.Value(domain.FieldStatus)
	if !ok {
		return true
	}
	status = strings.ToLower(status)
	return status != "bounced" && status != "failed"
}

// classifyBounce evaluates the soft and hard bounce categories
// independently. Both status-based branches require a bounce type: a bare
// "bounced" status with no type information is ambiguous and increments
// neither counter.
func classifyBounce(record domain.NormalizedRecord) (soft, hard bool) {
	bounceType, hasType := record.Value(domain.FieldBounceType)
	bounceType = strings.ToLower(bounceType)
	status, _ := record.Value(domain.FieldStatus)
	bounced := strings.EqualFold(status, "bounced")

	if hasType {
		containsTemp := strings.Contains(bounceType, "temp")
		containsSoft := strings.Contains(bounceType, "soft")
		soft = containsSoft || (bounced && containsTemp)
		hard = strings.Contains(bounceType, "hard") || (bounced && !containsTemp && !containsSoft)
	}
	return soft, hard
}

// rate returns numerator/denominator as a percentage, 0 when the
// denominator is not positive.
func rate(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}

// dateBucket derives the calendar-date key for a timestamp value. A
// successful parse formats as YYYY-MM-DD; otherwise the substring before
// the first time separator is used, and values with no separator (or an
// empty prefix) collapse to the "Unknown" bucket.
func dateBucket(value string) string {
	if t, ok := parseTimestamp(value); ok {
		return t.Format("2006-01-02")
	}
	if i := strings.IndexAny(value, "T "); i > 0 {
		return value[:i]
	}
	return unknownBucket
}

// engagementOverTime groups records by the calendar date of their send
// timestamp and counts present open and click values per bucket. A record
// may contribute to both counts. Buckets sort ascending by date string,
// which is chronological for ISO dates and places "Unknown" last.
func engagementOverTime(records []domain.NormalizedRecord) []domain.EngagementPoint {
	buckets := make(map[string]*domain.EngagementPoint)

	for _, record := range records {
		value, ok := record.Value(domain.FieldTimestamp)
		if !ok {
			continue
		}
		key := dateBucket(value)
		point, exists := buckets[key]
		if !exists {
			point = &domain.EngagementPoint{Date: key}
			buckets[key] = point
		}
		if record.Has(domain.FieldOpenTime) {
			point.Opens++
		}
		if record.Has(domain.FieldClickTime) {
			point.Clicks++
		}
	}

	points := make([]domain.EngagementPoint, 0, len(buckets))
	for _, point := range buckets {
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})
	return points
}

// opensByHour builds the hour-of-day histogram of parseable open times.
// All 24 hours are always present in ascending order, zero-defaulted;
// unparseable open times are silently skipped.
func opensByHour(records []domain.NormalizedRecord) []domain.HourCount {
	hours := make([]domain.HourCount, 24)
	for i := range hours {
		hours[i].Hour = i
	}

	for _, record := range records {
		value, ok := record.Value(domain.FieldOpenTime)
		if !ok {
			continue
		}
		if t, parsed := parseTimestamp(value); parsed {
			hours[t.Hour()].Count++
		}
	}

	return hours
}

// campaignComparison groups records by campaign, bucketing rows without
// one under "Unknown". Rates are percentages of the group's sent count.
// Output sorts descending by sent; ties keep first-encountered group order.
func campaignComparison(records []domain.NormalizedRecord) []domain.CampaignStats {
	stats := make(map[string]*domain.CampaignStats)
	order := make([]string, 0)

	for _, record := range records {
		campaign, ok := record.Value(domain.FieldCampaignName)
		if !ok {
			campaign = unknownBucket
		}
		entry, exists := stats[campaign]
		if !exists {
			entry = &domain.CampaignStats{Campaign: campaign}
			stats[campaign] = entry
			order = append(order, campaign)
		}
		entry.Sent++
		if record.Has(domain.FieldOpenTime) {
			entry.Opened++
		}
		if record.Has(domain.FieldClickTime) {
			entry.Clicked++
		}
	}

	comparison := make([]domain.CampaignStats, 0, len(order))
	for _, campaign := range order {
		entry := stats[campaign]
		entry.OpenRate = rate(entry.Opened, entry.Sent)
		entry.ClickRate = rate(entry.Clicked, entry.Sent)
		comparison = append(comparison, *entry)
	}
	sort.SliceStable(comparison, func(i, j int) bool {
		return comparison[i].Sent > comparison[j].Sent
	})
	return comparison
}

// locationData groups opens and clicks by location. Records with no
// location are excluded entirely, never bucketed as "Unknown". Output
// sorts descending by opens, first-encountered order on ties.
func locationData(records []domain.NormalizedRecord) []domain.LocationStats {
	stats := make(map[string]*domain.LocationStats)
	order := make([]string, 0)

	for _, record := range records {
		location, ok := record.Value(domain.FieldLocation)
		if !ok {
			continue
		}
		entry, exists := stats[location]
		if !exists {
			entry = &domain.LocationStats{Location: location}
			stats[location] = entry
			order = append(order, location)
		}
		if record.Has(domain.FieldOpenTime) {
			entry.Opens++
		}
		if record.Has(domain.FieldClickTime) {
			entry.Clicks++
		}
	}

	locations := make([]domain.LocationStats, 0, len(order))
	for _, location := range order {
		locations = append(locations, *stats[location])
	}
	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].Opens > locations[j].Opens
	})
	return locations
}
