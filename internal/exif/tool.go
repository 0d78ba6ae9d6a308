package exif

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/barasher/go-exiftool"
)

// TagTool reads and writes embedded metadata of a local file.
type TagTool interface {
	ReadTags(ctx context.Context, path string) (map[string]interface{}, error)
	WriteTags(ctx context.Context, path string, tags map[string]interface{}) error
}

// ExifTool drives one stay-open exiftool process. go-exiftool serializes
// commands to the process itself.
type ExifTool struct {
	et *exiftool.Exiftool
}

func NewExifTool() (*ExifTool, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("failed to start exiftool: %w", err)
	}
	return &ExifTool{et: et}, nil
}

func (t *ExifTool) ReadTags(ctx context.Context, path string) (map[string]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := t.et.ExtractMetadata(path)

	if len(results) != 1 {
		return nil, fmt.Errorf("exiftool returned %d results for %s", len(results), path)
	}
	if results[0].Err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", results[0].Err)
	}

	tags := make(map[string]interface{}, len(results[0].Fields))
	for k, v := range results[0].Fields {
		tags[k] = v
	}
	// Scratch paths are an implementation detail.
	delete(tags, "SourceFile")
	delete(tags, "Directory")
	return tags, nil
}

// WriteTags applies already sanitized tags. An empty string deletes a tag.
func (t *ExifTool) WriteTags(ctx context.Context, path string, tags map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	md := exiftool.EmptyFileMetadata()
	md.File = path
	for _, k := range sortedKeys(tags) {
		if list, ok := tags[k].([]interface{}); ok {
			values := make([]string, 0, len(list))
			for _, el := range list {
				values = append(values, formatValue(el))
			}
			md.SetStrings(k, values)
			continue
		}
		md.SetString(k, formatValue(tags[k]))
	}

	batch := []exiftool.FileMetadata{md}
	t.et.WriteMetadata(batch)

	if batch[0].Err != nil {
		return fmt.Errorf("failed to write tags: %w", batch[0].Err)
	}
	return nil
}

func (t *ExifTool) Close() error {
	return t.et.Close()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
