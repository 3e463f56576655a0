// Package testkit provides synthetic datasets with known parameters and
// helpers that write them in the upstream file layouts.
package testkit

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"goreplicate/domain/core"
	"goreplicate/domain/dataset"
)

// SocialCSVHeader is the column order written by WriteSocialCSV
var SocialCSVHeader = append([]string{dataset.ColSession}, dataset.SocialColumns...)

// EffortCSVHeader is the column order written by WriteEffortCSV
var EffortCSVHeader = dataset.EffortColumns

// SocialRecords renders observations as CSV records, header first
func SocialRecords(obs []dataset.SocialChoice) [][]string {
	records := [][]string{SocialCSVHeader}
	for _, o := range obs {
		records = append(records, []string{
			strconv.Itoa(o.Session),
			o.Subject.String(),
			num(o.BehindX), num(o.AheadX), num(o.BehindY), num(o.AheadY),
			num(o.PosRecip), num(o.NegRecip),
			num(o.SelfX), num(o.OtherX), num(o.SelfY), num(o.OtherY),
			flag(o.ChoseX),
		})
	}
	return records
}

// EffortRecords renders observations as CSV records, header first
func EffortRecords(obs []dataset.EffortChoice) [][]string {
	records := [][]string{EffortCSVHeader}
	for _, o := range obs {
		records = append(records, []string{
			o.Subject.String(),
			num(o.Effort), num(o.Wage), num(o.NetDistance),
			flag(o.Today), flag(o.Prediction), flag(o.BonusOffered),
		})
	}
	return records
}

// WriteCSV writes records to dir/name and returns the path
func WriteCSV(t testing.TB, dir, name string, records [][]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		t.Fatalf("write %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
	return path
}

// WriteExclusions writes one subject id per line under a sid header
func WriteExclusions(t testing.TB, dir, name string, ids []core.SubjectID) string {
	t.Helper()
	records := [][]string{{dataset.ColSubject}}
	for _, id := range ids {
		records = append(records, []string{id.String()})
	}
	return WriteCSV(t, dir, name, records)
}

// DataDir returns the published datasets directory, skipping the test when
// GOREPLICATE_TESTDATA is not set.
func DataDir(t testing.TB) string {
	t.Helper()
	dir := os.Getenv("GOREPLICATE_TESTDATA")
	if dir == "" {
		t.Skip("GOREPLICATE_TESTDATA not set; skipping published-value regression")
	}
	return dir
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
