// Package reporter writes analysis results as JSON and CSV report files.
package reporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hdrlab/headstone/internal/headers"
)

// tagColumns is the mechanism order used for classification report columns.
var tagColumns = []string{
	headers.HeaderHSTS,
	headers.HeaderXFO,
	headers.ViewCSPXSS,
	headers.ViewCSPFA,
	headers.ViewCSPTLS,
	headers.HeaderPermissionsPolicy,
	headers.HeaderReferrerPolicy,
	headers.HeaderCOOP,
	headers.HeaderCORP,
	headers.HeaderCOEP,
}

// Reporter handles writing analysis reports in various formats
type Reporter struct {
	outputDir string
}

// New creates a new Reporter instance
func New(outputDir string) (*Reporter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Reporter{outputDir: outputDir}, nil
}

func (r *Reporter) path(name string) string {
	return filepath.Join(r.outputDir, name)
}

func (r *Reporter) writeJSON(name string, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(r.path(name), jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}

// csvField makes a value safe for the comma separated reports.
func csvField(value string) string {
	value = strings.ReplaceAll(value, ",", ";")
	return strings.ReplaceAll(value, "\n", " ")
}
