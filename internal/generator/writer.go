package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanshika/muletrace/internal/ingest"
)

// WriteDataset writes transactions.csv and planted_rings.json under dir.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	csvPath := filepath.Join(dir, "transactions.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", csvPath, err)
	}
	if err := ingest.WriteCSV(file, dataset.Transactions); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", csvPath, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", csvPath, err)
	}

	return writeJSON(filepath.Join(dir, "planted_rings.json"), dataset.Planted)
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
