package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailpulse/internal/dataprocessing"
	"mailpulse/internal/exporter"
	"mailpulse/pkg/contracts/domain"
)

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList("  "))
	assert.Equal(t, []string{"Spring Sale", "Summer Promo"}, splitList("Spring Sale, Summer Promo"))
	assert.Equal(t, []string{"gmail"}, splitList("gmail,,"))
}

func TestBuildCriteria(t *testing.T) {
	t.Run("empty flags keep everything unset", func(t *testing.T) {
		criteria, err := buildCriteria("", "", "", "")
		require.NoError(t, err)
		assert.Nil(t, criteria.Campaigns)
		assert.Nil(t, criteria.Providers)
		assert.False(t, criteria.DateRangeActive())
	})

	t.Run("date range is inclusive of the end day", func(t *testing.T) {
		criteria, err := buildCriteria("", "", "2026-03-01", "2026-03-10")
		require.NoError(t, err)
		require.True(t, criteria.DateRangeActive())
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), *criteria.DateFrom)
		endOfDay := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).Add(24*time.Hour - time.Nanosecond)
		assert.Equal(t, endOfDay, *criteria.DateTo)
	})

	t.Run("from without to is rejected", func(t *testing.T) {
		_, err := buildCriteria("", "", "2026-03-01", "")
		assert.Error(t, err)
	})

	t.Run("reversed range is rejected", func(t *testing.T) {
		_, err := buildCriteria("", "", "2026-03-10", "2026-03-01")
		assert.Error(t, err)
	})

	t.Run("bad date format is rejected", func(t *testing.T) {
		_, err := buildCriteria("", "", "03/01/2026", "03/10/2026")
		assert.Error(t, err)
	})
}

func TestParseOverrides(t *testing.T) {
	t.Run("valid pairs", func(t *testing.T) {
		overrides, err := parseOverrides("emailAddress=Email,status=Delivery Status")
		require.NoError(t, err)
		assert.Equal(t, "Email", overrides[domain.FieldEmailAddress])
		assert.Equal(t, "Delivery Status", overrides[domain.FieldStatus])
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := parseOverrides("notAField=Email")
		assert.Error(t, err)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := parseOverrides("status=")
		assert.Error(t, err)
	})
}

func TestProcessFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	pipeline := dataprocessing.NewPipeline(logger)
	writer := exporter.NewSummaryWriter(logger)

	dir := t.TempDir()
	input := filepath.Join(dir, "spring.csv")
	content := "Email,Status,Campaign Name\n" +
		"alice@gmail.com,delivered,Spring Sale\n" +
		"bob@yahoo.com,bounced,Spring Sale\n" +
		"carol@gmail.com,delivered,Summer Promo\n"
	require.NoError(t, os.WriteFile(input, []byte(content), 0644))

	outDir := filepath.Join(dir, "out")
	err := processFile(context.Background(), logger, pipeline, writer, input, outDir,
		exporter.FormatJSON, nil, domain.FilterCriteria{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "spring-summary.json"))
	require.NoError(t, err)

	var envelope struct {
		Summary domain.AggregateSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, 3, envelope.Summary.TotalSent)
	assert.Equal(t, 2, envelope.Summary.TotalDelivered)
}

func TestProcessFileWithFiltersAndOverrides(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	pipeline := dataprocessing.NewPipeline(logger)
	writer := exporter.NewSummaryWriter(logger)

	dir := t.TempDir()
	input := filepath.Join(dir, "campaigns.csv")
	content := "Recipient,Delivery,Promo\n" +
		"alice@gmail.com,delivered,Spring Sale\n" +
		"bob@yahoo.com,delivered,Summer Promo\n"
	require.NoError(t, os.WriteFile(input, []byte(content), 0644))

	overrides, err := parseOverrides("emailAddress=Recipient,status=Delivery,campaignName=Promo")
	require.NoError(t, err)

	criteria := domain.FilterCriteria{Campaigns: []string{"Spring Sale"}}
	outDir := filepath.Join(dir, "out")
	err = processFile(context.Background(), logger, pipeline, writer, input, outDir,
		exporter.FormatJSON, overrides, criteria)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "campaigns-summary.json"))
	require.NoError(t, err)

	var envelope struct {
		Summary domain.AggregateSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, 1, envelope.Summary.TotalSent)
}

func TestProcessFileParseError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	pipeline := dataprocessing.NewPipeline(logger)
	writer := exporter.NewSummaryWriter(logger)

	dir := t.TempDir()
	input := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(input, []byte("junk"), 0644))

	err := processFile(context.Background(), logger, pipeline, writer, input, dir,
		exporter.FormatCSV, nil, domain.FilterCriteria{})
	assert.Error(t, err)
}
