package dmap

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

type exportGroup struct {
	Hash       string   `json:"hash"`
	Size       int64    `json:"size"`
	Original   string   `json:"original"`
	Duplicates []string `json:"duplicates"`
}

type exportSummary struct {
	GroupCount       int           `json:"group_count"`
	DuplicateCount   int           `json:"duplicate_count"`
	ReclaimableBytes uint64        `json:"reclaimable_bytes"`
	Groups           []exportGroup `json:"groups"`
}

// WriteJSON writes the duplicate groups to a JSON file.
func (d *Dmap) WriteJSON(path string) error {
	data, err := json.MarshalIndent(d.collectExportSummary(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	file, err := secureOutputFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("write JSON file %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes one row per file. The original of each group comes
// first with role "original".
func (d *Dmap) WriteCSV(path string) error {
	summary := d.collectExportSummary()
	file, err := secureOutputFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"hash", "size_bytes", "role", "path"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, group := range summary.Groups {
		size := strconv.FormatInt(group.Size, 10)
		if err := writer.Write([]string{group.Hash, size, "original", group.Original}); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
		for _, dup := range group.Duplicates {
			if err := writer.Write([]string{group.Hash, size, "duplicate", dup}); err != nil {
				return fmt.Errorf("write CSV row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush CSV writer: %w", err)
	}
	return nil
}

// collectExportSummary keeps groups in the order their first duplicate was
// found so exports line up with list output.
func (d *Dmap) collectExportSummary() exportSummary {
	if d == nil {
		return exportSummary{Groups: []exportGroup{}}
	}

	groups := d.Groups()
	out := exportSummary{
		GroupCount:       len(groups),
		DuplicateCount:   d.Len(),
		ReclaimableBytes: d.ReclaimableBytes(),
		Groups:           make([]exportGroup, 0, len(groups)),
	}
	for _, g := range groups {
		out.Groups = append(out.Groups, exportGroup{
			Hash:       g.Key.Digest.Hex(),
			Size:       g.Key.Size,
			Original:   g.Original,
			Duplicates: append([]string(nil), g.Duplicates...),
		})
	}
	return out
}

func secureOutputFile(path string) (*os.File, error) {
	if path == "" {
		return nil, errors.New("output path is empty")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("resolve output path %s: %w", path, err)
	}

	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("output path %s is a directory", abs)
	}

	return openFileSecure(abs, filepath.Dir(abs), filepath.Base(abs))
}
