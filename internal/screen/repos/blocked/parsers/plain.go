// Package parsers reads block-list imports.
package parsers

import (
	"bufio"
	"io"
	"strings"

	"github.com/haukened/callscreen/internal/screen/common/log"
)

// ParsePlainList reads newline-delimited phone numbers.
//
// Behavior:
// - '#' starts a comment, whole-line or inline
// - a leading byte-order mark is dropped
// - surrounding whitespace is trimmed; the number itself is kept verbatim
// - empty lines are skipped
// - repeated numbers are dropped, keeping first-seen order
func ParsePlainList(r io.Reader, source string, logger log.Logger) ([]string, error) {
	logger = log.OrNoop(logger)
	scanner := bufio.NewScanner(r)

	seen := make(map[string]struct{})
	out := make([]string, 0, 64)
	logger.Debug(map[string]any{"source": source}, "parse_plain_list_start")
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if lineNum == 1 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		number := strings.TrimSpace(line)
		if number == "" {
			continue
		}
		if _, dup := seen[number]; dup {
			logger.Debug(map[string]any{"line": lineNum}, "skip_duplicate")
			continue
		}
		seen[number] = struct{}{}
		out = append(out, number)
	}
	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err}, "parse_plain_list_scan_error")
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_plain_list_done")
	return out, nil
}
