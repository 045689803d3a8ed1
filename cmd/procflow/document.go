package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/schema"
	"gopkg.in/yaml.v3"
)

// readDocument reads a JSON or YAML file and returns its JSON encoding. YAML
// is recognised by the .yaml and .yml extensions.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlToJSON(data)
	default:
		return data, nil
	}
}

func yamlToJSON(data []byte) ([]byte, error) {
	var document any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to parse YAML document: %w", err)
	}

	encoded, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML document: %w", err)
	}

	return encoded, nil
}

func loadWorkflow(path string) (models.Workflow, error) {
	data, err := readDocument(path)
	if err != nil {
		return models.Workflow{}, err
	}

	return schema.DecodeDocument(data)
}

func loadCondition(path string) (*models.Condition, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	var condition models.Condition
	if err := json.Unmarshal(data, &condition); err != nil {
		return nil, fmt.Errorf("invalid condition in %s: %w", path, err)
	}

	return &condition, nil
}
