// Package stage1 parses NORAD TLE files into normalized satellite records,
// analyzes the epoch distribution across the loaded set, and optionally
// filters/samples the result (spec.md §4.2).
package stage1

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cedarwud/orbit-engine/internal/model"
)

// lineLength is the canonical TLE line length (spec.md §4.2: "verify line
// lengths (69 chars)").
const lineLength = 69

// ParseError reports a record-level parse failure; these are dropped and
// counted, never fail-fast (spec.md §7 taxonomy row "individual record
// malformed").
type ParseError struct {
	File   string
	Reason string
}

func (e ParseError) Error() string { return fmt.Sprintf("%s: %s", e.File, e.Reason) }

// LoadResult is everything ParseDirectory produces.
type LoadResult struct {
	Records       []model.SatelliteRecord
	FailedRecords int
	ParseErrors   []ParseError
	PlusChecksumCount  int // records whose checksum only validated counting '+' as well as '-'
	MinusChecksumCount int
}

// ParseDirectory reads every *.txt file in dir, treating the filename
// (minus extension) as the constellation tag, and returns normalized
// records. A file-read failure is fail-fast (spec.md §7: "corrupt input
// file"); an individual malformed record is dropped and counted.
func ParseDirectory(dir string, minMeanMotion, maxMeanMotion float64) (LoadResult, error) {
	var result LoadResult

	entries, err := os.ReadDir(dir)
	if err != nil {
		return result, fmt.Errorf("stage1: read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		constellation := constellationFromFilename(entry.Name())
		path := filepath.Join(dir, entry.Name())

		f, err := os.Open(path)
		if err != nil {
			return result, fmt.Errorf("stage1: open %s: %w", path, err)
		}

		recs, failed, perrs, plus, minus, err := parseFile(f, path, constellation, minMeanMotion, maxMeanMotion)
		f.Close()
		if err != nil {
			return result, fmt.Errorf("stage1: parse %s: %w", path, err)
		}

		result.Records = append(result.Records, recs...)
		result.FailedRecords += failed
		result.ParseErrors = append(result.ParseErrors, perrs...)
		result.PlusChecksumCount += plus
		result.MinusChecksumCount += minus
	}

	if len(result.Records) == 0 {
		return result, fmt.Errorf("stage1: no valid TLE records found in %s", dir)
	}

	return result, nil
}

func constellationFromFilename(name string) model.Constellation {
	base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	switch {
	case strings.Contains(base, "oneweb"):
		return model.ConstellationOneWeb
	default:
		return model.ConstellationStarlink
	}
}

// parseFile reads a (optionally 3-line) TLE text stream: an optional name
// header line, then two 69-character element lines per record.
func parseFile(r io.Reader, path string, constellation model.Constellation, minMM, maxMM float64) (
	[]model.SatelliteRecord, int, []ParseError, int, int, error,
) {
	var (
		records []model.SatelliteRecord
		failed  int
		perrs   []ParseError
		plus    int
		minus   int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256), 1024)

	var pending []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line == "" {
			continue
		}
		pending = append(pending, line)

		// A "1 " or "2 " prefix marks an element line; gather until we
		// have a matching pair.
		if len(pending) >= 2 {
			last := pending[len(pending)-1]
			prev := pending[len(pending)-2]
			if strings.HasPrefix(prev, "1 ") && strings.HasPrefix(last, "2 ") {
				name := ""
				if len(pending) >= 3 {
					name = strings.TrimSpace(pending[len(pending)-3])
				}
				rec, style, err := parseRecord(name, prev, last, constellation, minMM, maxMM)
				if err != nil {
					failed++
					perrs = append(perrs, ParseError{File: path, Reason: err.Error()})
				} else {
					records = append(records, rec)
					if style == "plus-and-minus" {
						plus++
					} else {
						minus++
					}
				}
				pending = nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, nil, 0, 0, err
	}

	return records, failed, perrs, plus, minus, nil
}

func parseRecord(name, line1, line2 string, constellation model.Constellation, minMM, maxMM float64) (model.SatelliteRecord, string, error) {
	if len(line1) < lineLength || len(line2) < lineLength {
		return model.SatelliteRecord{}, "", fmt.Errorf("line length < %d", lineLength)
	}

	id1, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return model.SatelliteRecord{}, "", fmt.Errorf("invalid NORAD id on line 1: %w", err)
	}
	id2, err := strconv.Atoi(strings.TrimSpace(line2[2:7]))
	if err != nil {
		return model.SatelliteRecord{}, "", fmt.Errorf("invalid NORAD id on line 2: %w", err)
	}
	if id1 != id2 {
		return model.SatelliteRecord{}, "", fmt.Errorf("NORAD id mismatch between lines: %d != %d", id1, id2)
	}

	style1, ok1 := checksumStyle(line1)
	style2, ok2 := checksumStyle(line2)
	if !ok1 || !ok2 {
		return model.SatelliteRecord{}, "", fmt.Errorf("checksum mismatch on satellite %d", id1)
	}
	style := "minus-only"
	if style1 == "plus-and-minus" || style2 == "plus-and-minus" {
		style = "plus-and-minus"
	}

	epoch, err := parseEpoch(line1)
	if err != nil {
		return model.SatelliteRecord{}, "", fmt.Errorf("satellite %d: %w", id1, err)
	}

	meanMotion, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil {
		return model.SatelliteRecord{}, "", fmt.Errorf("satellite %d: invalid mean motion: %w", id1, err)
	}
	if meanMotion < minMM || meanMotion > maxMM {
		return model.SatelliteRecord{}, "", fmt.Errorf(
			"satellite %d: mean motion %.6f rev/day outside plausible range [%.4f, %.4f]",
			id1, meanMotion, minMM, maxMM)
	}

	if name == "" {
		name = fmt.Sprintf("SAT-%d", id1)
	}

	return model.SatelliteRecord{
		SatelliteID:     id1,
		Name:            name,
		Constellation:   constellation,
		Line1:           line1,
		Line2:           line2,
		EpochDatetime:   epoch,
		MeanMotionRevPD: meanMotion,
		ChecksumDigit:   style,
	}, style, nil
}

// checksumStyle computes the TLE mod-10 checksum over columns 1-68.
// Strictly, only digits and '-' contribute (SOURCE: Spacetrack Report #3
// checksum definition); some producers additionally count '+' toward the
// sum. We accept a line if either interpretation matches the trailing
// checksum digit, and report which one did (spec.md §4.2: "accept both
// but record which was used").
func checksumStyle(line string) (style string, ok bool) {
	if len(line) < lineLength {
		return "", false
	}

	var sumMinusOnly, sumPlusAndMinus int
	for i := 0; i < lineLength-1; i++ {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			sumMinusOnly += int(c - '0')
			sumPlusAndMinus += int(c - '0')
		case c == '-':
			sumMinusOnly++
			sumPlusAndMinus++
		case c == '+':
			sumPlusAndMinus++
		}
	}

	want := int(line[lineLength-1] - '0')
	if want < 0 || want > 9 {
		return "", false
	}

	if sumMinusOnly%10 == want {
		return "minus-only", true
	}
	if sumPlusAndMinus%10 == want {
		return "plus-and-minus", true
	}
	return "", false
}

// parseEpoch computes epoch_datetime from line1 columns 19-32 (two-digit
// year + fractional day of year), independently of any other satellite's
// epoch (spec.md §3 invariant: each record retains its own epoch).
func parseEpoch(line1 string) (time.Time, error) {
	yearStr := strings.TrimSpace(line1[18:20])
	dayStr := strings.TrimSpace(line1[20:32])

	yy, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year: %w", err)
	}
	dayOfYear, err := strconv.ParseFloat(dayStr, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day: %w", err)
	}
	if dayOfYear <= 0 {
		return time.Time{}, fmt.Errorf("epoch day of year %.6f out of range", dayOfYear)
	}

	year := 1900 + yy
	if yy < 57 {
		year = 2000 + yy
	}

	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	seconds := (dayOfYear - 1.0) * 86400.0
	return start.Add(time.Duration(seconds * float64(time.Second))), nil
}

// OrbitalPeriodFromMeanMotion converts mean motion (revolutions per day)
// to an orbital period in minutes.
func OrbitalPeriodFromMeanMotion(meanMotionRevPerDay float64) float64 {
	if meanMotionRevPerDay <= 0 {
		return 0
	}
	return 1440.0 / meanMotionRevPerDay
}

// EpochAnalysis is the cross-stage metadata persisted to
// epoch_analysis.json in stage 1's output directory and consumed by stage 4.
type EpochAnalysis struct {
	TotalEpochs        int                              `json:"total_epochs"`
	UniqueEpochs       int                               `json:"unique_epochs"`
	DiversityRatio     float64                           `json:"diversity_ratio"`
	PerConstellation   map[model.Constellation]PeriodStats `json:"per_constellation"`
	RecommendedInstant time.Time                         `json:"recommended_instant"`
}

// PeriodStats summarises the orbital-period spread for one constellation.
type PeriodStats struct {
	MinMinutes         float64 `json:"min_minutes"`
	MaxMinutes         float64 `json:"max_minutes"`
	RecommendedMinutes float64 `json:"recommended_minutes"`
}

// AnalyzeEpochs computes the epoch-distribution summary spec.md §4.2
// requires, including the per-constellation orbital-period statistics
// stage 4 relies on.
func AnalyzeEpochs(records []model.SatelliteRecord) EpochAnalysis {
	seen := map[int64]bool{}
	var earliest, latest time.Time
	periods := map[model.Constellation][]float64{}

	for i, r := range records {
		key := r.EpochDatetime.Unix()
		seen[key] = true

		if i == 0 || r.EpochDatetime.Before(earliest) {
			earliest = r.EpochDatetime
		}
		if i == 0 || r.EpochDatetime.After(latest) {
			latest = r.EpochDatetime
		}

		periods[r.Constellation] = append(periods[r.Constellation], OrbitalPeriodFromMeanMotion(r.MeanMotionRevPD))
	}

	perConstellation := map[model.Constellation]PeriodStats{}
	for c, ps := range periods {
		if len(ps) == 0 {
			continue
		}
		min, max, sum := ps[0], ps[0], 0.0
		for _, p := range ps {
			if p < min {
				min = p
			}
			if p > max {
				max = p
			}
			sum += p
		}
		perConstellation[c] = PeriodStats{
			MinMinutes:         min,
			MaxMinutes:         max,
			RecommendedMinutes: sum / float64(len(ps)),
		}
	}

	diversity := 0.0
	if len(records) > 0 {
		diversity = float64(len(seen)) / float64(len(records))
	}

	recommended := latest
	if recommended.IsZero() {
		recommended = time.Now().UTC()
	}

	return EpochAnalysis{
		TotalEpochs:        len(records),
		UniqueEpochs:        len(seen),
		DiversityRatio:     diversity,
		PerConstellation:   perConstellation,
		RecommendedInstant: recommended,
	}
}

// FilterMode names the three epoch-window strategies.
type FilterMode string

const (
	FilterLatestDate FilterMode = "latest_date"
	FilterDateRange  FilterMode = "date_range"
	FilterAll        FilterMode = "all"
)

// FilterByEpoch applies the configured epoch window, keeping only records
// whose epoch falls inside it. Rationale (spec.md §4.2): a one-day TLE
// slice prevents stale propagation.
func FilterByEpoch(records []model.SatelliteRecord, mode FilterMode, toleranceHours float64, rangeStart, rangeEnd time.Time) []model.SatelliteRecord {
	switch mode {
	case FilterAll, "":
		return records
	case FilterDateRange:
		out := records[:0:0]
		for _, r := range records {
			if !r.EpochDatetime.Before(rangeStart) && !r.EpochDatetime.After(rangeEnd) {
				out = append(out, r)
			}
		}
		return out
	case FilterLatestDate:
		if len(records) == 0 {
			return records
		}
		latest := records[0].EpochDatetime
		for _, r := range records {
			if r.EpochDatetime.After(latest) {
				latest = r.EpochDatetime
			}
		}
		dayStart := time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24 * time.Hour)
		tol := time.Duration(toleranceHours * float64(time.Hour))

		out := records[:0:0]
		for _, r := range records {
			if !r.EpochDatetime.Before(dayStart.Add(-tol)) && !r.EpochDatetime.After(dayEnd.Add(tol)) {
				out = append(out, r)
			}
		}
		return out
	default:
		return records
	}
}

// SamplingMode names the three sampling strategies.
type SamplingMode string

const (
	SamplingDisabled SamplingMode = "disabled"
	SamplingEnabled  SamplingMode = "enabled"
	SamplingAuto     SamplingMode = "auto"
)

// Sample deterministically selects up to n records (first-N ordering by
// satellite ID, stable), never random (spec.md §4.2: "deterministic, not
// random").
func Sample(records []model.SatelliteRecord, mode SamplingMode, n, autoThreshold int) []model.SatelliteRecord {
	switch mode {
	case SamplingDisabled, "":
		return records
	case SamplingAuto:
		if len(records) <= autoThreshold {
			return records
		}
		return firstN(records, n)
	case SamplingEnabled:
		return firstN(records, n)
	default:
		return records
	}
}

func firstN(records []model.SatelliteRecord, n int) []model.SatelliteRecord {
	if n <= 0 || n >= len(records) {
		return records
	}
	sorted := append([]model.SatelliteRecord(nil), records...)
	// stable, deterministic ordering by satellite ID before truncating
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].SatelliteID < sorted[j-1].SatelliteID; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted[:n]
}

// RoundToSecond truncates a duration-derived time to whole seconds, used
// when reporting human-readable summaries.
func RoundToSecond(t time.Time) time.Time {
	return t.Add(time.Duration(-t.Nanosecond()))
}
