package gamebryo

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ReadLoadOrder returns the active plugins listed in a plugins.txt.
//
// Older games list only active plugins. Newer games list every plugin and
// prefix the active ones with '*'; once any line carries the prefix, lines
// without it are inactive. Lines starting with '#' are comments. Files
// that are not valid UTF-8 are read as Windows-1252.
func ReadLoadOrder(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read load order: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if !utf8.Valid(data) {
		if data, _, err = transform.Bytes(charmap.Windows1252.NewDecoder(), data); err != nil {
			return nil, fmt.Errorf("failed to decode load order: %w", err)
		}
	}

	var (
		listed  []string
		starred []string
		star    bool
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if name, ok := strings.CutPrefix(line, "*"); ok {
			star = true
			starred = append(starred, strings.TrimSpace(name))
			continue
		}
		listed = append(listed, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read load order: %w", err)
	}

	if star {
		return starred, nil
	}
	return listed, nil
}

