// Package store persists the case list as one document under a fixed key.
// Every save overwrites the whole document; the last write wins.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ppiankov/enquete/internal/model"
)

// Key names the stored document
const Key = "gendarme_ai_cases"

// Repository loads and saves the full case list
type Repository interface {
	// Load returns the stored cases, or an empty list when nothing was saved
	Load(ctx context.Context) ([]model.CaseData, error)

	// Save replaces the stored document
	Save(ctx context.Context, cases []model.CaseData) error

	Close() error
}

// Open creates the repository for driver under dataDir
func Open(driver, dataDir string) (Repository, error) {
	switch strings.ToLower(driver) {
	case "file", "":
		return NewFileRepository(filepath.Join(dataDir, Key+".json")), nil
	case "sqlite":
		return OpenSQLite(filepath.Join(dataDir, "enquete.db"))
	case "memory":
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s (supported: file, sqlite, memory)", driver)
	}
}

func encode(cases []model.CaseData) ([]byte, error) {
	if cases == nil {
		cases = []model.CaseData{}
	}
	data, err := json.Marshal(cases)
	if err != nil {
		return nil, fmt.Errorf("encode cases: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]model.CaseData, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return []model.CaseData{}, nil
	}
	var cases []model.CaseData
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("decode %s: %w", Key, err)
	}
	if cases == nil {
		cases = []model.CaseData{}
	}
	return cases, nil
}
