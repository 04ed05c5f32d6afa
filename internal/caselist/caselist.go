// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package caselist reads the procedure list that drives a run: one
// procedure name per line, order preserved, blank lines and #-comments
// ignored.
package caselist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads the case list at path and returns the procedure names in
// file order. Duplicate names are kept; the digest mirrors the file.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening case list %s: %w", path, err)
	}
	defer f.Close()

	var procedures []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		procedures = append(procedures, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading case list %s: %w", path, err)
	}

	if len(procedures) == 0 {
		return nil, fmt.Errorf("case list %s contains no procedures", path)
	}
	return procedures, nil
}
