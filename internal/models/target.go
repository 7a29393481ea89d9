package models

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Target is one site to observe, read from a Tranco-style ranking file.
type Target struct {
	Rank   int    `json:"rank"`
	Domain string `json:"domain"`
	URL    string `json:"url"`
}

// ReadTargets reads up to limit targets from a CSV ranking file with
// "rank,domain" lines, expanding each domain into a crawlable URL by
// prepending prefix. A limit of 0 reads the whole file.
func ReadTargets(path, prefix string, limit int) ([]Target, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open target file: %w", err)
	}
	defer file.Close()

	var targets []Target
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if limit > 0 && len(targets) >= limit {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rankField, domain, found := strings.Cut(line, ",")
		if !found {
			return nil, fmt.Errorf("malformed target line %q", line)
		}
		rank, err := strconv.Atoi(strings.TrimSpace(rankField))
		if err != nil {
			return nil, fmt.Errorf("invalid rank in line %q: %w", line, err)
		}
		domain = strings.TrimSpace(domain)

		targets = append(targets, Target{
			Rank:   rank,
			Domain: domain,
			URL:    prefix + domain + "/",
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target file: %w", err)
	}
	return targets, nil
}
