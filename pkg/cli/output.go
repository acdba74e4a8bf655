package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// Dump writes v to w as YAML, the format the tools use for structured
// terminal output.
func Dump(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("cli: format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}
