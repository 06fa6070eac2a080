package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// ExportService renders analytics summaries as a downloadable CSV report
// with three sections: by category, by status, and the daily trend.
type ExportService struct {
	analytics *AnalyticsService
}

func NewExportService(analytics *AnalyticsService) *ExportService {
	return &ExportService{analytics: analytics}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// AnalyticsCSV builds the CSV report for the given range and returns its
// contents plus a timestamped filename.
func (s *ExportService) AnalyticsCSV(r DateRange) ([]byte, string, error) {
	byCategory, err := s.analytics.ByCategory(r)
	if err != nil {
		return nil, "", err
	}
	byStatus, err := s.analytics.ByStatus(r)
	if err != nil {
		return nil, "", err
	}
	trend, err := s.analytics.Trend(r)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	write := func(record []string) error { return w.Write(record) }

	if err := write([]string{"Category", "Expense Count", "Total Amount", "Average Amount"}); err != nil {
		return nil, "", fmt.Errorf("write csv: %w", err)
	}
	for _, row := range byCategory {
		if err := write([]string{row.Category, strconv.FormatInt(row.Count, 10), money(row.TotalAmount), money(row.AverageAmount)}); err != nil {
			return nil, "", fmt.Errorf("write csv: %w", err)
		}
	}

	w.Flush()
	buf.WriteString("\n")

	if err := write([]string{"Status", "Expense Count", "Total Amount", "Average Amount"}); err != nil {
		return nil, "", fmt.Errorf("write csv: %w", err)
	}
	for _, row := range byStatus {
		if err := write([]string{row.Status, strconv.FormatInt(row.Count, 10), money(row.TotalAmount), money(row.AverageAmount)}); err != nil {
			return nil, "", fmt.Errorf("write csv: %w", err)
		}
	}

	w.Flush()
	buf.WriteString("\n")

	if err := write([]string{"Date", "Expense Count", "Total Amount"}); err != nil {
		return nil, "", fmt.Errorf("write csv: %w", err)
	}
	for _, row := range trend {
		if err := write([]string{row.Date, strconv.FormatInt(row.Count, 10), money(row.TotalAmount)}); err != nil {
			return nil, "", fmt.Errorf("write csv: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("flush csv: %w", err)
	}

	filename := fmt.Sprintf("analytics_report_%s.csv", time.Now().UTC().Format("2006-01-02T15-04-05"))
	return buf.Bytes(), filename, nil
}
