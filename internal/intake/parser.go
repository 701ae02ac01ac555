package intake

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/claude/liftplan/internal/engine"
	"go.uber.org/multierr"
)

// Column names of the coach CSV export, in the order the export writes them.
const (
	colLift                = "lift"
	colOneRM               = "one_rm"
	colRounding            = "rounding"
	colVolume              = "volume"
	colPct75               = "75_percent"
	colPct85               = "85_percent"
	colReps90              = "90_total_reps"
	colReps95              = "95_total_reps"
	colVolumePatternMain   = "volume_pattern_main"
	colVolumePattern8190   = "volume_pattern_8190"
	colSessionsPerWeek     = "sessions_per_week"
	colSessionDistribution = "session_distribution"
)

var requiredColumns = []string{
	colLift, colOneRM, colRounding, colVolume,
	colPct75, colPct85, colReps90, colReps95,
	colVolumePatternMain, colVolumePattern8190,
	colSessionsPerWeek, colSessionDistribution,
}

// weightColumnRe matches the optional per-zone working weight columns: weight_85
var weightColumnRe = regexp.MustCompile(`^weight_(55|65|75|85|90|95)$`)

// ErrNoHeader is returned for an export that is empty or holds only comments.
var ErrNoHeader = errors.New("missing header row")

// ErrNoRows is returned for an export with a header but no lift rows.
var ErrNoRows = errors.New("no lift rows")

// LineError describes a problem with one cell or row of the export.
type LineError struct {
	Line   int
	Column string
	Value  string
	Reason string
}

func (e *LineError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: %s=%q: %s", e.Line, e.Column, e.Value, e.Reason)
}

// Parse reads a semicolon-separated coach export with one row per lift and
// returns the engine input document. Blank lines and lines starting with #
// are ignored. Every malformed row is reported, not just the first.
func Parse(r io.Reader) (engine.Input, error) {
	scanner := bufio.NewScanner(r)
	var header map[string]int
	var width int
	lifts := map[string]engine.LiftInput{}
	firstSeen := map[string]int{}
	var errs error
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := splitFields(line)

		if header == nil {
			h, err := parseHeader(lineNo, fields)
			if err != nil {
				return engine.Input{}, err
			}
			header, width = h, len(fields)
			continue
		}

		if len(fields) != width {
			errs = multierr.Append(errs, &LineError{
				Line:   lineNo,
				Reason: fmt.Sprintf("expected %d columns, got %d", width, len(fields)),
			})
			continue
		}

		name, li, err := parseRow(lineNo, header, fields)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if first, dup := firstSeen[name]; dup {
			errs = multierr.Append(errs, &LineError{
				Line: lineNo, Column: colLift, Value: name,
				Reason: fmt.Sprintf("duplicate lift (first on line %d)", first),
			})
			continue
		}
		firstSeen[name] = lineNo
		lifts[name] = li
	}
	if err := scanner.Err(); err != nil {
		return engine.Input{}, fmt.Errorf("reading export: %w", err)
	}
	if header == nil {
		return engine.Input{}, ErrNoHeader
	}
	if errs != nil {
		return engine.Input{}, errs
	}
	if len(lifts) == 0 {
		return engine.Input{}, ErrNoRows
	}

	return engine.Input{Lifts: lifts}, nil
}

// splitFields splits a row on ';' and strips surrounding quotes.
func splitFields(line string) []string {
	parts := strings.Split(line, ";")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
			p = p[1 : len(p)-1]
		}
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func parseHeader(lineNo int, fields []string) (map[string]int, error) {
	header := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.ToLower(f)
		if _, dup := header[name]; dup {
			return nil, &LineError{Line: lineNo, Column: name, Value: f, Reason: "duplicate column"}
		}
		if !isRequiredColumn(name) && !weightColumnRe.MatchString(name) {
			return nil, &LineError{Line: lineNo, Column: name, Value: f, Reason: "unknown column"}
		}
		header[name] = i
	}
	for _, col := range requiredColumns {
		if _, ok := header[col]; !ok {
			return nil, &LineError{Line: lineNo, Column: col, Reason: "missing column"}
		}
	}
	return header, nil
}

func isRequiredColumn(name string) bool {
	for _, c := range requiredColumns {
		if c == name {
			return true
		}
	}
	return false
}

// rowParser collects cell errors for a single row.
type rowParser struct {
	line   int
	header map[string]int
	fields []string
	errs   error
}

func (p *rowParser) cell(col string) string {
	return p.fields[p.header[col]]
}

func (p *rowParser) fail(col, value, reason string) {
	p.errs = multierr.Append(p.errs, &LineError{Line: p.line, Column: col, Value: value, Reason: reason})
}

func (p *rowParser) decimal(col string) float64 {
	raw := p.cell(col)
	v, err := parseDecimal(raw)
	if err != nil {
		p.fail(col, raw, "invalid number")
	}
	return v
}

func (p *rowParser) integer(col string) int {
	raw := p.cell(col)
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(col, raw, "invalid integer")
	}
	return v
}

func (p *rowParser) text(col string) string {
	v := p.cell(col)
	if v == "" {
		p.fail(col, v, "is required")
	}
	return v
}

func parseRow(lineNo int, header map[string]int, fields []string) (string, engine.LiftInput, error) {
	p := &rowParser{line: lineNo, header: header, fields: fields}

	name := normalizeLift(p.cell(colLift))
	if !isKnownLift(name) {
		p.fail(colLift, p.cell(colLift), "unknown lift")
	}

	li := engine.LiftInput{
		OneRM:    p.decimal(colOneRM),
		Rounding: p.decimal(colRounding),
		Volume:   p.integer(colVolume),
		IntensityDistribution: engine.IntensityDistribution{
			Pct75:  p.integer(colPct75),
			Pct85:  p.integer(colPct85),
			Reps90: p.integer(colReps90),
			Reps95: p.integer(colReps95),
		},
		VolumePatternMain:   p.text(colVolumePatternMain),
		VolumePattern8190:   p.text(colVolumePattern8190),
		SessionsPerWeek:     p.integer(colSessionsPerWeek),
		SessionDistribution: p.text(colSessionDistribution),
	}

	for _, zone := range engine.AllZones {
		col := "weight_" + string(zone)
		if _, ok := header[col]; !ok || p.cell(col) == "" {
			continue
		}
		if li.Weights == nil {
			li.Weights = map[engine.Zone]float64{}
		}
		li.Weights[zone] = p.decimal(col)
	}

	return name, li, p.errs
}

// normalizeLift maps "Bench Press" and "bench-press" to bench_press.
func normalizeLift(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

func isKnownLift(name string) bool {
	for _, l := range engine.Lifts() {
		if l == name {
			return true
		}
	}
	return false
}

// parseDecimal accepts both "142.5" and the European "142,5".
func parseDecimal(s string) (float64, error) {
	if strings.Count(s, ",") > 1 || (strings.Contains(s, ",") && strings.Contains(s, ".")) {
		return 0, fmt.Errorf("ambiguous decimal %q", s)
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}
