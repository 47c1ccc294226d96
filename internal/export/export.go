package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/i474232898/weather-history/internal/weather"
)

// Format is a supported export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// CSVHeader is the first line of every CSV export.
const CSVHeader = "SearchQuery,ResolvedLocation,Note,Date,MaxTemp,MinTemp"

// ParseFormat accepts "json" or "csv" in any case; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// FileName returns the download name used for the format.
func (f Format) FileName() string {
	return "weather-history." + string(f)
}

// Write encodes records in the given format.
func Write(w io.Writer, f Format, records []weather.HistoryRecord) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatJSON:
		return WriteJSON(w, records)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}

// WriteJSON writes the full history as a pretty-printed JSON array.
func WriteJSON(w io.Writer, records []weather.HistoryRecord) error {
	if records == nil {
		records = []weather.HistoryRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// ReadJSON parses a JSON export back into records.
func ReadJSON(r io.Reader) ([]weather.HistoryRecord, error) {
	var records []weather.HistoryRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return records, nil
}

// WriteCSV flattens the history to one row per forecast day. The query, location and
// note columns are always quoted; date and temperatures never are.
func WriteCSV(w io.Writer, records []weather.HistoryRecord) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(CSVHeader + "\n"); err != nil {
		return err
	}

	for _, rec := range records {
		for _, day := range rec.WeatherData {
			row := []string{
				quote(rec.SearchQuery),
				quote(rec.ResolvedLocation),
				quote(rec.UserNote),
				day.Date,
				strconv.Itoa(day.MaxTemp),
				strconv.Itoa(day.MinTemp),
			}
			if _, err := bw.WriteString(strings.Join(row, ",") + "\n"); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
