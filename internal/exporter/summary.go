package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"mailpulse/pkg/contracts/domain"
)

// Format identifies an export output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format string from a request or flag.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format: %q", s)
	}
}

// ContentType returns the MIME type for HTTP responses.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// utf8BOM helps Excel recognize UTF-8 encoded CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SummaryWriter renders analytics summaries to CSV or JSON.
type SummaryWriter struct {
	logger *slog.Logger

	now func() time.Time
}

// NewSummaryWriter creates a summary writer.
func NewSummaryWriter(logger *slog.Logger) *SummaryWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SummaryWriter{
		logger: logger.With(slog.String("component", "exporter")),
		now:    time.Now,
	}
}

// Write renders the summary in the given format to out.
func (w *SummaryWriter) Write(out io.Writer, format Format, datasetID string, summary *domain.AggregateSummary) error {
	switch format {
	case FormatJSON:
		return w.WriteJSON(out, datasetID, summary)
	case FormatCSV:
		return w.WriteCSV(out, summary)
	default:
		return fmt.Errorf("unsupported export format: %q", format)
	}
}

// WriteFile renders the summary to a file, creating parent directories.
func (w *SummaryWriter) WriteFile(path string, format Format, datasetID string, summary *domain.AggregateSummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := w.Write(file, format, datasetID, summary); err != nil {
		file.Close()
		return err
	}

	w.logger.Info("summary exported",
		slog.String("path", path),
		slog.String("format", string(format)),
	)

	return file.Close()
}

// jsonEnvelope wraps a summary with export metadata.
type jsonEnvelope struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Format      string                   `json:"format"`
	DatasetID   string                   `json:"dataset_id,omitempty"`
	Summary     *domain.AggregateSummary `json:"summary"`
}

// WriteJSON writes the summary as indented JSON with a metadata envelope.
func (w *SummaryWriter) WriteJSON(out io.Writer, datasetID string, summary *domain.AggregateSummary) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonEnvelope{
		GeneratedAt: w.now().UTC(),
		Format:      string(FormatJSON),
		DatasetID:   datasetID,
		Summary:     summary,
	})
}

// WriteCSV writes the summary as sectioned CSV with a UTF-8 BOM.
func (w *SummaryWriter) WriteCSV(out io.Writer, summary *domain.AggregateSummary) error {
	if _, err := out.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(out)

	sections := []func(*csv.Writer, *domain.AggregateSummary) error{
		writeOverview,
		writeEngagement,
		writeOpensByHour,
		writeCampaigns,
		writeLocations,
	}

	for i, section := range sections {
		if i > 0 {
			if err := cw.Write([]string{}); err != nil {
				return err
			}
		}
		if err := section(cw, summary); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeOverview(cw *csv.Writer, s *domain.AggregateSummary) error {
	rows := [][]string{
		{"Overview"},
		{"Metric", "Value"},
		{"Total Sent", formatInt(int64(s.TotalSent))},
		{"Total Delivered", formatInt(int64(s.TotalDelivered))},
		{"Total Opened", formatInt(int64(s.TotalOpened))},
		{"Total Clicked", formatInt(int64(s.TotalClicked))},
		{"Open Rate (%)", formatFloat(s.OpenRate)},
		{"Click Rate (%)", formatFloat(s.ClickRate)},
		{"Bounce Rate (%)", formatFloat(s.BounceRate)},
		{"Soft Bounces", formatInt(int64(s.SoftBounces))},
		{"Hard Bounces", formatInt(int64(s.HardBounces))},
	}
	return cw.WriteAll(rows)
}

func writeEngagement(cw *csv.Writer, s *domain.AggregateSummary) error {
	if err := cw.WriteAll([][]string{
		{"Engagement Over Time"},
		{"Date", "Opens", "Clicks"},
	}); err != nil {
		return err
	}
	for _, p := range s.EngagementOverTime {
		if err := cw.Write([]string{p.Date, strconv.Itoa(p.Opens), strconv.Itoa(p.Clicks)}); err != nil {
			return err
		}
	}
	return nil
}

func writeOpensByHour(cw *csv.Writer, s *domain.AggregateSummary) error {
	if err := cw.WriteAll([][]string{
		{"Opens By Hour"},
		{"Hour", "Opens"},
	}); err != nil {
		return err
	}
	for _, h := range s.OpensByHour {
		if err := cw.Write([]string{strconv.Itoa(h.Hour), strconv.Itoa(h.Count)}); err != nil {
			return err
		}
	}
	return nil
}

func writeCampaigns(cw *csv.Writer, s *domain.AggregateSummary) error {
	if err := cw.WriteAll([][]string{
		{"Campaign Comparison"},
		{"Campaign", "Sent", "Opened", "Clicked", "Open Rate (%)", "Click Rate (%)"},
	}); err != nil {
		return err
	}
	for _, c := range s.CampaignComparison {
		row := []string{
			c.Campaign,
			strconv.Itoa(c.Sent),
			strconv.Itoa(c.Opened),
			strconv.Itoa(c.Clicked),
			formatFloat(c.OpenRate),
			formatFloat(c.ClickRate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeLocations(cw *csv.Writer, s *domain.AggregateSummary) error {
	if err := cw.WriteAll([][]string{
		{"Location Data"},
		{"Location", "Opens", "Clicks"},
	}); err != nil {
		return err
	}
	for _, l := range s.LocationData {
		if err := cw.Write([]string{l.Location, strconv.Itoa(l.Opens), strconv.Itoa(l.Clicks)}); err != nil {
			return err
		}
	}
	return nil
}
