package pipeline

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/verdant-labs/biodivminer/internal/registry"
	"github.com/verdant-labs/biodivminer/internal/resolve"
)

// reportNamePattern captures the company part of a report filename, the text
// before the first _YYYY_ segment.
var reportNamePattern = regexp.MustCompile(`^(.*?)_\d{4}_`)

// CleanReportFolder deletes input PDFs whose filename prefix matches no
// company in the registry. Files whose name does not follow the
// <company>_<year>_... pattern are warned about and kept.
func CleanReportFolder(inputDir string, companies []registry.Company) error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return fmt.Errorf("read input dir: %w", err)
	}

	normalized := make([]string, 0, len(companies))
	for _, c := range companies {
		normalized = append(normalized, resolve.NormalizeName(c.Name))
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			continue
		}
		m := reportNamePattern.FindStringSubmatch(name)
		if m == nil {
			log.Printf("hygiene: %s does not follow the naming pattern, keeping it", name)
			continue
		}
		prefix := resolve.NormalizeName(m[1])
		if matchesAny(prefix, normalized) {
			continue
		}
		path := filepath.Join(inputDir, name)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove %s: %w", name, err)
		}
		log.Printf("hygiene: removed %s, no matching company in the registry", name)
	}
	return nil
}

func matchesAny(prefix string, normalized []string) bool {
	for _, n := range normalized {
		if strings.Contains(n, prefix) {
			return true
		}
	}
	return false
}
