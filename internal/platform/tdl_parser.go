package platform

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tdlgui/tdl-gui/internal/model"
)

// Byte size units used by tdl output
const (
	KB = 1024
	MB = KB * 1024
	GB = MB * 1024
	TB = GB * 1024
)

// Speed suffix emitted by tdl (e.g. "353.50 KB/s")
const SpeedSuffix = "/s"

// Grammar holds the compiled patterns for one version of the external
// tool's output. The exact line formats are version-dependent, so the
// grammar is a replaceable value rather than a fixed set of assumptions.
type Grammar struct {
	// InProgress matches a per-file progress update.
	// Example: 'Saved Messages(123):456 -> out.mp4 ... 6.1% [....] [4.00 MB in 11.587s; ETA: 3m2s; 353.50 KB/s]'
	InProgress *regexp.Regexp

	// Done matches a completed file.
	// Example: 'Saved Messages(123):456 -> out.mp4 ... done! [65.37 MB in 1m37.935s; 682.85 KB/s]'
	Done *regexp.Regexp

	// Overall matches the tool's overall progress bar.
	// Example: '[########......] [1m26s; 1.17 MB/s]'
	Overall *regexp.Regexp

	// Stats matches a resource usage line.
	// Example: 'CPU: 3.13% Memory: 31.26 MB Goroutines: 54'
	Stats *regexp.Regexp

	// ErrorLine matches lines the tool emits on per-item errors
	ErrorLine *regexp.Regexp
}

// TDLGrammar returns the grammar for current tdl releases
func TDLGrammar() Grammar {
	return Grammar{
		InProgress: regexp.MustCompile(
			`^(?P<id>.+?)\s+\.{3}\s+(?P<percent>[\d.]+)%\s*(?:\[.*?\]\s*)?\[(?P<size>.+?) in (?P<elapsed>.+?);\s*~?ETA:\s*(?P<eta>.+?);\s*(?P<speed>.+?)\]`),
		Done: regexp.MustCompile(
			`^(?P<id>.+?)\s+\.{3}\s+done!\s*\[(?P<size>.+?) in (?P<elapsed>.+?);\s*(?P<speed>.+?)\]`),
		Overall: regexp.MustCompile(
			`^\[(?P<bar>#+\.*)\]\s+\[(?P<time>.+?);\s*(?P<speed>.+?)\]`),
		Stats: regexp.MustCompile(
			`CPU:\s*(?P<cpu>[\d.]+)%\s+Memory:\s*(?P<mem>[\d.]+)\s+(?P<unit>\w+)\s+Goroutines:\s*(?P<goroutines>\d+)`),
		ErrorLine: regexp.MustCompile(`(?i)^(?:\[?error\]?[:\s]|.*\berror:\s)`),
	}
}

// Parser turns raw output lines into structured progress events. Parsing is
// stateless: feeding the same line twice yields the same event twice.
type Parser struct {
	grammar Grammar
}

// NewParser creates a parser for the given grammar
func NewParser(grammar Grammar) *Parser {
	return &Parser{grammar: grammar}
}

// NewTDLParser creates a parser for the default tdl grammar
func NewTDLParser() *Parser {
	return NewParser(TDLGrammar())
}

// Parse classifies one raw output line. It never fails: lines outside the
// grammar come back as EventUnrecognized with the verbatim text preserved.
func (p *Parser) Parse(line string) model.ProgressEvent {
	line = strings.TrimSpace(line)

	// Completed files first: the done line also matches the progress
	// pattern's prefix
	if m := matchNamed(p.grammar.Done, line); m != nil {
		size := parseByteSize(m["size"])
		return model.ProgressEvent{
			Kind:       model.EventItemDone,
			ItemID:     strings.TrimSpace(m["id"]),
			Percent:    100,
			BytesDone:  size,
			BytesTotal: size,
			Speed:      parseSpeed(m["speed"]),
			ETASec:     0,
			Line:       line,
		}
	}

	if m := matchNamed(p.grammar.InProgress, line); m != nil {
		percent, _ := strconv.ParseFloat(m["percent"], 64)
		done := parseByteSize(m["size"])
		return model.ProgressEvent{
			Kind:       model.EventItemProgress,
			ItemID:     strings.TrimSpace(m["id"]),
			Percent:    percent,
			BytesDone:  done,
			BytesTotal: estimateTotal(done, percent),
			Speed:      parseSpeed(m["speed"]),
			ETASec:     parseETASeconds(m["eta"]),
			Line:       line,
		}
	}

	if m := matchNamed(p.grammar.Overall, line); m != nil {
		bar := m["bar"]
		hashes := strings.Count(bar, "#")
		total := len(bar)
		var percent float64
		if total > 0 {
			percent = float64(hashes) / float64(total) * 100
		}
		return model.ProgressEvent{
			Kind:       model.EventOverall,
			Percent:    percent,
			BytesTotal: model.UnknownTotal,
			Speed:      parseSpeed(m["speed"]),
			ETASec:     model.UnknownETA,
			Line:       line,
		}
	}

	if m := matchNamed(p.grammar.Stats, line); m != nil {
		cpu, _ := strconv.ParseFloat(m["cpu"], 64)
		mem, _ := strconv.ParseFloat(m["mem"], 64)
		goroutines, _ := strconv.Atoi(m["goroutines"])
		return model.ProgressEvent{
			Kind:        model.EventStats,
			CPUPercent:  cpu,
			MemoryBytes: int64(mem * float64(unitMultiplier(m["unit"]))),
			Goroutines:  goroutines,
			Line:        line,
		}
	}

	if p.grammar.ErrorLine != nil && p.grammar.ErrorLine.MatchString(line) {
		return model.ProgressEvent{
			Kind: model.EventError,
			Line: line,
		}
	}

	return model.ProgressEvent{
		Kind:       model.EventUnrecognized,
		BytesTotal: model.UnknownTotal,
		ETASec:     model.UnknownETA,
		Line:       line,
	}
}

// matchNamed runs the pattern and returns a map of named groups, or nil
func matchNamed(re *regexp.Regexp, line string) map[string]string {
	if re == nil {
		return nil
	}
	match := re.FindStringSubmatch(line)
	if match == nil {
		return nil
	}
	groups := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(match) {
			groups[name] = match[i]
		}
	}
	return groups
}

// estimateTotal derives a total byte count from the reported fraction.
// Below one tenth of a percent the estimate is too noisy to be useful.
func estimateTotal(done int64, percent float64) int64 {
	if done <= 0 || percent < 0.1 {
		return model.UnknownTotal
	}
	return int64(float64(done) / percent * 100)
}

// parseByteSize parses strings like "4.00 MB" into bytes.
// Returns 0 for unparseable input.
func parseByteSize(s string) int64 {
	s = strings.Join(strings.Fields(s), "")

	unitStart := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			unitStart = i
			break
		}
	}
	valueStr, unit := s[:unitStart], s[unitStart:]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0
	}
	return int64(value * float64(unitMultiplier(unit)))
}

// parseSpeed parses strings like "353.50 KB/s" into bytes per second
func parseSpeed(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), SpeedSuffix)
	return float64(parseByteSize(s))
}

// parseETASeconds parses durations like "3m2s" into whole seconds.
// Returns UnknownETA for unparseable input.
func parseETASeconds(s string) int {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return model.UnknownETA
	}
	return int(d.Seconds())
}

func unitMultiplier(unit string) int64 {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "KB", "KIB", "K":
		return KB
	case "MB", "MIB", "M":
		return MB
	case "GB", "GIB", "G":
		return GB
	case "TB", "TIB", "T":
		return TB
	default:
		return 1
	}
}
