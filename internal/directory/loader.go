package directory

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Record is one row of a PMS card/guest export. A row with an empty name is
// a card that opens a room but has no registered guest.
type Record struct {
	UID     string `yaml:"uid" parquet:"uid"`
	Room    string `yaml:"room" parquet:"room"`
	Name    string `yaml:"name" parquet:"name"`
	Phone   string `yaml:"phone" parquet:"phone"`
	Email   string `yaml:"email" parquet:"email"`
	Consent bool   `yaml:"consent" parquet:"consent"`
}

// Load loads directory records from an export file (YAML or Parquet).
func Load(path string) ([]Record, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".parquet":
		return loadParquet(path)
	default:
		return nil, fmt.Errorf("unsupported directory format: %s (supported: .yaml, .parquet)", ext)
	}
}

// loadYAML loads records from a YAML export
func loadYAML(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory file: %w", err)
	}

	var doc struct {
		Records []Record `yaml:"records"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse directory yaml: %w", err)
	}

	slog.Debug("Loaded YAML directory export", "path", path, "records", len(doc.Records))
	return doc.Records, nil
}

// loadParquet loads records from a Parquet export
func loadParquet(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	var records []Record
	rows := make([]Record, 128) // Read in batches

	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Loaded Parquet directory export", "path", path, "records", len(records))
	return records, nil
}
