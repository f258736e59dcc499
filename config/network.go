package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kilianp07/gridchronics/core/model"
)

// LoadNetwork reads and validates a network model from a JSON file.
func LoadNetwork(path string) (*model.NetworkModel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var net model.NetworkModel
	if err := json.Unmarshal(b, &net); err != nil {
		return nil, fmt.Errorf("network %s: %w", path, err)
	}
	if err := net.Validate(); err != nil {
		return nil, err
	}
	return &net, nil
}
