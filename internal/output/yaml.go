package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlWriter struct {
	buffer
	w *bufio.Writer
}

func newYAMLWriter(w io.Writer) *yamlWriter {
	return &yamlWriter{w: bufio.NewWriter(w)}
}

func (w *yamlWriter) Flush() error {
	enc := yaml.NewEncoder(w.w)
	enc.SetIndent(2)
	if err := enc.Encode(w.document()); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	w.items = nil
	return w.w.Flush()
}
