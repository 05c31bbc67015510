package services

import (
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/shelfwise/internal/core/domain"
)

// Storage locations of a persisted generation, relative to its name.
// The index blob is replaced on every rebuild; records are stored per
// generation and the index manifest names the generation to read.
const (
	indexSuffix   = ".index"
	recordsSuffix = ".records.json"
)

func recordsLocation(name, generation string) string {
	return name + "." + generation + recordsSuffix
}

// recordsSnapshot is the persisted record set of one generation.
type recordsSnapshot struct {
	Generation string                 `json:"generation"`
	Records    []domain.ProductRecord `json:"records"`
}

func encodeRecords(generation string, records []domain.ProductRecord) ([]byte, error) {
	data, err := json.Marshal(recordsSnapshot{Generation: generation, Records: records})
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return data, nil
}

func decodeRecords(data []byte) (*recordsSnapshot, error) {
	var snap recordsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: invalid records snapshot: %v", domain.ErrCorruptIndex, err)
	}
	if snap.Generation == "" || len(snap.Records) == 0 {
		return nil, fmt.Errorf("%w: records snapshot is empty", domain.ErrCorruptIndex)
	}
	return &snap, nil
}
