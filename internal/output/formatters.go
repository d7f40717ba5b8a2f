package output

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Formatter renders a value for display.
type Formatter interface {
	Format(data any) ([]byte, error)
}

// JSONFormatter formats output as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any) ([]byte, error) {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any) ([]byte, error) {
	return yaml.Marshal(data)
}

// NewFormatter returns the formatter for "json" or "yaml".
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "json":
		return &JSONFormatter{}, nil
	case "yaml":
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
