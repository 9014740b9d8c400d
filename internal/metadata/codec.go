package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for an encoding other than json or yaml.
var ErrUnknownFormat = errors.New("unknown metadata format")

// Marshal renders m as "json" (indented) or "yaml".
func Marshal(m *FileMetadata, format string) ([]byte, error) {
	switch format {
	case "json", "":
		out, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode metadata json: %w", err)
		}
		return append(out, '\n'), nil
	case "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return nil, fmt.Errorf("encode metadata yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode metadata yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Unmarshal parses data produced by Marshal.
func Unmarshal(data []byte, format string) (*FileMetadata, error) {
	var m FileMetadata
	switch format {
	case "json", "":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode metadata json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("decode metadata yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return &m, nil
}

// Fingerprint is xxh3 over the msgpack encoding of the record. Equal
// metadata hashes equal; nil hashes to zero.
func (m *FileMetadata) Fingerprint() uint64 {
	if m == nil {
		return 0
	}
	data, err := msgpack.Marshal(m)
	if err != nil {
		return 0
	}
	return xxh3.Hash(data)
}
