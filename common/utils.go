package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// GenerateRunID returns a unique identifier for one harvest run.
// It starts with the current timestamp in "YYYYMMDDHHMMSS" format so run
// directories sort chronologically, followed by a short random suffix.
func GenerateRunID() string {
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102150405"), uuid.NewString()[:8])
}

// ReadURLsFromFile reads channel links from a file, one per line.
// It ignores empty lines and lines starting with a '#' character (comments).
func ReadURLsFromFile(filename string) ([]string, error) {
	log.Debug().Str("filename", filename).Msg("Reading URLs from file")

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	var urls []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			urls = append(urls, line)
		}
	}

	log.Debug().Int("url_count", len(urls)).Msg("URLs read from file")
	return urls, nil
}
