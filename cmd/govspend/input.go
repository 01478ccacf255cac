package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/govspend/internal/models"
)

// awardEnvelope covers the wrapped input layouts: exported analyze requests and raw search responses
type awardEnvelope struct {
	Records []models.RawAward `json:"records"`
	Results []models.RawAward `json:"results"`
}

// readAwards loads award records from a file, or stdin when path is "-".
// YAML files are converted to JSON first so both formats share the lenient award decoder.
func readAwards(path string) ([]models.RawAward, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML input %s: %w", path, err)
		}
	}

	return decodeAwards(data)
}

// decodeAwards accepts a bare array of records or an object carrying "records" or "results"
func decodeAwards(data []byte) ([]models.RawAward, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("input is empty")
	}

	if strings.HasPrefix(trimmed, "[") {
		var awards []models.RawAward
		if err := json.Unmarshal([]byte(trimmed), &awards); err != nil {
			return nil, fmt.Errorf("invalid award array: %w", err)
		}
		return awards, nil
	}

	var envelope awardEnvelope
	if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
		return nil, fmt.Errorf("invalid award document: %w", err)
	}
	if envelope.Records != nil {
		return envelope.Records, nil
	}
	if envelope.Results != nil {
		return envelope.Results, nil
	}
	return nil, fmt.Errorf("input has no records or results array")
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// parseRevenue turns repeated RECIPIENT=AMOUNT flags into a revenue map.
// The last '=' splits, so recipient names may contain '='.
func parseRevenue(values []string) (map[string]float64, error) {
	if len(values) == 0 {
		return nil, nil
	}

	revenue := make(map[string]float64, len(values))
	for _, value := range values {
		idx := strings.LastIndex(value, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("invalid revenue %q: expected RECIPIENT=AMOUNT", value)
		}

		recipient := strings.TrimSpace(value[:idx])
		amount, err := strconv.ParseFloat(strings.TrimSpace(value[idx+1:]), 64)
		if err != nil || amount < 0 || recipient == "" {
			return nil, fmt.Errorf("invalid revenue %q: expected RECIPIENT=AMOUNT with a non-negative amount", value)
		}
		revenue[recipient] = amount
	}
	return revenue, nil
}

// writeJSON writes indented JSON to path, or stdout when path is empty or "-"
func writeJSON(path string, v interface{}) error {
	out := io.Writer(os.Stdout)
	if path != "" && path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output %s: %w", path, err)
		}
		defer file.Close()
		out = file
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
