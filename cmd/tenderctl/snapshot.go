package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/tender-integrity/internal/errors"
	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// loadTender reads a tender snapshot from a JSON or YAML file. The document
// may be the tender itself or wrapped as {"tender": {...}} like the HTTP body.
func loadTender(path string) (types.Tender, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Tender{}, errors.NewMalformedInputError("snapshot file", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if data, err = yamlToJSON(data); err != nil {
			return types.Tender{}, errors.NewMalformedInputError("yaml snapshot", err)
		}
	}

	return decodeTender(data)
}

func decodeTender(data []byte) (types.Tender, error) {
	var envelope struct {
		Tender *json.RawMessage `json:"tender"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return types.Tender{}, errors.NewMalformedInputError("json snapshot", err)
	}
	if envelope.Tender != nil {
		data = *envelope.Tender
	}

	var tender types.Tender
	if err := json.Unmarshal(data, &tender); err != nil {
		return types.Tender{}, errors.NewMalformedInputError("tender", err)
	}
	return tender, nil
}

// yamlToJSON re-encodes YAML as JSON so the JSON tags and decimal/time
// decoders on the tender types apply to both formats
func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	normalized, err := normalizeYAML(doc)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

func normalizeYAML(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			n, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			t[k] = n
		}
		return t, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			n, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = n
		}
		return out, nil
	case []interface{}:
		for i, val := range t {
			n, err := normalizeYAML(val)
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
		return t, nil
	default:
		return v, nil
	}
}
