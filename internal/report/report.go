// Package report renders decode results as console text or as JSON, CSV
// and XLSX exports.
package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/bartune/internal/barcode"
	"github.com/MeKo-Tech/bartune/internal/common"
)

// NoData is printed when a decode call returns nothing.
const NoData = "No data detected."

// Format selects the output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts text, json, csv and xlsx in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want text, json, csv or xlsx)", s)
	}
}

// Entry is the outcome of one decode step. SettingsError and LicenseError
// carry the non-fatal failures that text output prints inline.
type Entry struct {
	Step          string           `json:"step"`
	Strategy      string           `json:"strategy"`
	File          string           `json:"file"`
	ElapsedMS     *int64           `json:"elapsed_ms,omitempty"`
	Error         string           `json:"error,omitempty"`
	SettingsError string           `json:"settings_error,omitempty"`
	LicenseError  string           `json:"license_error,omitempty"`
	Results       []barcode.Result `json:"results"`
}

// NewEntry builds an entry; elapsed is recorded only when timed is set.
func NewEntry(step, strategy, file string, results []barcode.Result, elapsed time.Duration, timed bool, err error) Entry {
	e := Entry{Step: step, Strategy: strategy, File: file, Results: results}
	if e.Results == nil {
		e.Results = []barcode.Result{}
	}
	if timed {
		ms := common.Milliseconds(elapsed)
		e.ElapsedMS = &ms
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WriteText prints the console report: an optional cost line, then one
// line per result or the no-data line.
func WriteText(w io.Writer, results []barcode.Result, elapsed *time.Duration) error {
	bw := bufio.NewWriter(w)
	if elapsed != nil {
		fmt.Fprintf(bw, "Cost time:%dms\n", common.Milliseconds(*elapsed))
	}
	if len(results) == 0 {
		fmt.Fprintln(bw, NoData)
		return bw.Flush()
	}
	for i, r := range results {
		fmt.Fprintf(bw, "Barcode %d:%s,%s\n", i+1, r.DisplayFormat(), r.Text)
	}
	return bw.Flush()
}

// WriteJSON writes entries as an indented JSON document.
func WriteJSON(w io.Writer, entries []Entry) error {
	doc := struct {
		Steps []Entry `json:"steps"`
	}{Steps: entries}
	if doc.Steps == nil {
		doc.Steps = []Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

var csvHeader = []string{
	"step", "strategy", "file", "elapsed_ms", "index", "format", "text", "confidence", "page", "points", "error",
	"settings_error", "license_error",
}

// rows flattens entries to one row per result; entries without results
// keep a single row with an empty index.
func rows(entries []Entry) [][]string {
	var out [][]string
	for _, e := range entries {
		elapsed := ""
		if e.ElapsedMS != nil {
			elapsed = strconv.FormatInt(*e.ElapsedMS, 10)
		}
		if len(e.Results) == 0 {
			out = append(out, []string{
				e.Step, e.Strategy, e.File, elapsed, "", "", "", "", "", "", e.Error, e.SettingsError, e.LicenseError,
			})
			continue
		}
		for i, r := range e.Results {
			out = append(out, []string{
				e.Step,
				e.Strategy,
				e.File,
				elapsed,
				strconv.Itoa(i + 1),
				r.DisplayFormat(),
				r.Text,
				strconv.Itoa(r.Confidence),
				strconv.Itoa(r.Page),
				formatPoints(r),
				e.Error,
				e.SettingsError,
				e.LicenseError,
			})
		}
	}
	return out
}

func formatPoints(r barcode.Result) string {
	parts := make([]string, 0, len(r.Points))
	for _, p := range r.Points {
		parts = append(parts, fmt.Sprintf("%d %d", p.X, p.Y))
	}
	return strings.Join(parts, ";")
}

// WriteCSV writes a header and one row per result.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(rows(entries)); err != nil {
		return err
	}
	return cw.Error()
}

// Write dispatches on f. Text output prints every entry in turn.
func Write(w io.Writer, f Format, entries []Entry) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, entries)
	case FormatCSV:
		return WriteCSV(w, entries)
	case FormatXLSX:
		return WriteXLSX(w, entries)
	default:
		for _, e := range entries {
			var elapsed *time.Duration
			if e.ElapsedMS != nil {
				d := time.Duration(*e.ElapsedMS) * time.Millisecond
				elapsed = &d
			}
			if err := WriteText(w, e.Results, elapsed); err != nil {
				return err
			}
		}
		return nil
	}
}
