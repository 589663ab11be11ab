// Package profile reads the monthly demand and generation tables consumed by
// the optimizer.
package profile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/raterudder/pvsizer/pkg/log"
	"github.com/raterudder/pvsizer/pkg/types"
)

var (
	// ErrInputMissing is returned when an input file cannot be opened. A run
	// must abort before simulating anything when it sees this.
	ErrInputMissing  = errors.New("input file missing or unreadable")
	ErrMissingColumn = errors.New("missing column")
	ErrTooFewRows    = errors.New("fewer than 12 monthly rows")
)

// DemandColumns names the demand table columns. Values are in Wh.
type DemandColumns struct {
	DHW     string `json:"dhw"`
	Heating string `json:"heating"`
	Cooling string `json:"cooling"`
}

// DefaultDemandColumns are the column names written by the building energy
// simulation export.
func DefaultDemandColumns() DemandColumns {
	return DemandColumns{
		DHW:     "demandaACS (Wh)",
		Heating: "demandaCAL (Wh)",
		Cooling: "demandaREF (Wh)",
	}
}

// DefaultGenerationColumn is the PVGIS monthly energy column (kWh per kWp).
const DefaultGenerationColumn = "E_m"

// whPerKWH converts the demand export's Wh into kWh.
const whPerKWH = 1000

// ParseNumber cleans a table cell and parses it. Thousands separators and
// surrounding whitespace are removed. Anything that still fails to parse, is
// not finite or is negative is treated as zero. The boolean reports whether
// the value was coerced.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, true
	}
	return v, false
}

// table is a CSV file indexed by trimmed header name.
type table struct {
	header map[string]int
	rows   [][]string
}

func readTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv has no header")
	}
	t := &table{header: make(map[string]int, len(records[0])), rows: records[1:]}
	for i, name := range records[0] {
		t.header[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	return t, nil
}

// column returns the first 12 cleaned values of the named column and how many
// of them had to be coerced to zero.
func (t *table) column(name string) ([types.MonthsPerYear]float64, int, error) {
	var out [types.MonthsPerYear]float64
	idx, ok := t.header[name]
	if !ok {
		return out, 0, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	if len(t.rows) < types.MonthsPerYear {
		return out, 0, fmt.Errorf("%w: got %d", ErrTooFewRows, len(t.rows))
	}
	var coerced int
	for m := 0; m < types.MonthsPerYear; m++ {
		row := t.rows[m]
		var raw string
		if idx < len(row) {
			raw = row[idx]
		}
		v, bad := ParseNumber(raw)
		if bad {
			coerced++
		}
		out[m] = v
	}
	return out, coerced, nil
}

// ParseDemandCSV reads the demand table. Malformed cells become zero and
// values are converted from Wh to kWh.
func ParseDemandCSV(ctx context.Context, r io.Reader, cols DemandColumns) (types.MonthlyDemandProfile, error) {
	t, err := readTable(r)
	if err != nil {
		return types.MonthlyDemandProfile{}, err
	}

	var d types.MonthlyDemandProfile
	targets := []struct {
		name string
		dst  *[types.MonthsPerYear]float64
	}{
		{cols.DHW, &d.DHW},
		{cols.Heating, &d.Heating},
		{cols.Cooling, &d.Cooling},
	}
	for _, target := range targets {
		values, coerced, err := t.column(target.name)
		if err != nil {
			return types.MonthlyDemandProfile{}, err
		}
		if coerced > 0 {
			log.Ctx(ctx).DebugContext(ctx, "coerced malformed demand values to zero", slog.String("column", target.name), slog.Int("count", coerced))
		}
		for m, v := range values {
			target.dst[m] = v / whPerKWH
		}
	}
	return d, nil
}

// ParseGenerationCSV reads the monthly kWh per kWp from the named column.
func ParseGenerationCSV(ctx context.Context, r io.Reader, column string) (types.MonthlyGenerationProfile, error) {
	t, err := readTable(r)
	if err != nil {
		return types.MonthlyGenerationProfile{}, err
	}
	values, coerced, err := t.column(column)
	if err != nil {
		return types.MonthlyGenerationProfile{}, err
	}
	if coerced > 0 {
		log.Ctx(ctx).DebugContext(ctx, "coerced malformed generation values to zero", slog.String("column", column), slog.Int("count", coerced))
	}
	return types.MonthlyGenerationProfile{KWHPerKWp: values}, nil
}

// WriteGenerationCSV writes a profile in the layout ParseGenerationCSV reads
// so a fetched PVGIS profile can be cached on disk.
func WriteGenerationCSV(w io.Writer, g types.MonthlyGenerationProfile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"month", DefaultGenerationColumn}); err != nil {
		return err
	}
	for m, v := range g.KWHPerKWp {
		if err := cw.Write([]string{strconv.Itoa(m + 1), strconv.FormatFloat(v, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInputMissing, path, err)
	}
	return f, nil
}

// LoadDemandFile opens and parses a demand CSV.
func LoadDemandFile(ctx context.Context, path string, cols DemandColumns) (types.MonthlyDemandProfile, error) {
	f, err := openInput(path)
	if err != nil {
		return types.MonthlyDemandProfile{}, err
	}
	defer f.Close()

	d, err := ParseDemandCSV(ctx, f, cols)
	if err != nil {
		return types.MonthlyDemandProfile{}, fmt.Errorf("failed to parse demand file %s: %w", path, err)
	}
	return d, nil
}

// LoadGenerationFile opens and parses a generation file. Files ending in
// .json are read as a PVGIS response, anything else as CSV.
func LoadGenerationFile(ctx context.Context, path string, column string) (types.MonthlyGenerationProfile, error) {
	f, err := openInput(path)
	if err != nil {
		return types.MonthlyGenerationProfile{}, err
	}
	defer f.Close()

	var g types.MonthlyGenerationProfile
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		var resp PVGISResponse
		resp, err = DecodePVGIS(f)
		if err == nil {
			g, err = resp.Generation()
		}
	} else {
		g, err = ParseGenerationCSV(ctx, f, column)
	}
	if err != nil {
		return types.MonthlyGenerationProfile{}, fmt.Errorf("failed to parse generation file %s: %w", path, err)
	}
	return g, nil
}
