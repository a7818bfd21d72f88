package blobstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
)

// Format identifies a persisted record format.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatNDJSON Format = "ndjson"
	FormatJSON   Format = "json"
)

// FormatOf returns the record format implied by the object name extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".ndjson":
		return FormatNDJSON, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported object format: %s", name)
	}
}

// ContentType returns the MIME type written with an object.
func ContentType(name string) string {
	f, err := FormatOf(name)
	if err != nil {
		return "application/octet-stream"
	}
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatNDJSON:
		return "application/x-ndjson"
	default:
		return "application/json"
	}
}

// Document is a decoded object. Tabular formats fill Records, a JSON
// document fills Object.
type Document struct {
	Format  Format
	Records []map[string]any
	Object  any
}

// Decode parses data according to the extension of name.
func Decode(name string, data []byte) (Document, error) {
	format, err := FormatOf(name)
	if err != nil {
		return Document{}, err
	}

	doc := Document{Format: format}
	switch format {
	case FormatCSV:
		rows, err := DecodeCSV(data)
		if err != nil {
			return Document{}, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		doc.Records = make([]map[string]any, len(rows))
		for i, row := range rows {
			rec := make(map[string]any, len(row))
			for k, v := range row {
				rec[k] = v
			}
			doc.Records[i] = rec
		}
	case FormatNDJSON:
		doc.Records, err = DecodeNDJSON[map[string]any](data)
		if err != nil {
			return Document{}, fmt.Errorf("failed to decode %s: %w", name, err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc.Object); err != nil {
			return Document{}, fmt.Errorf("failed to decode %s: %w", name, err)
		}
	}
	return doc, nil
}

// DecodeCSV parses a CSV document with a header row into one map per row.
func DecodeCSV(data []byte) ([]map[string]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(fields) {
				row[col] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// EncodeCSV writes a header row followed by rows.
func EncodeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeNDJSON parses one JSON value per non-empty line.
func DecodeNDJSON[T any](data []byte) ([]T, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []T
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(text, &v); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeNDJSON writes one JSON value per line.
func EncodeNDJSON[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// ReadNDJSON reads and decodes every named NDJSON object in order.
func ReadNDJSON[T any](ctx context.Context, store Store, bucket string, names []string) ([]T, error) {
	var out []T
	for _, name := range names {
		data, err := store.Read(ctx, bucket, name)
		if err != nil {
			return nil, err
		}
		recs, err := DecodeNDJSON[T](data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

// WriteNDJSON encodes records and writes them as one object.
func WriteNDJSON[T any](ctx context.Context, store Store, bucket, name string, records []T) error {
	data, err := EncodeNDJSON(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return store.Write(ctx, bucket, name, data)
}

// ReadJSON reads a single JSON document into v.
func ReadJSON(ctx context.Context, store Store, bucket, name string, v any) error {
	data, err := store.Read(ctx, bucket, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// WriteJSON encodes v and writes it as one object.
func WriteJSON(ctx context.Context, store Store, bucket, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return store.Write(ctx, bucket, name, data)
}
