package output

import (
	"bufio"
	"encoding/json"
	"io"
)

type jsonWriter struct {
	buffer
	w   *bufio.Writer
	enc *json.Encoder
}

// jsonWriter renders all records as one indented document.
func newJSONWriter(w io.Writer) *jsonWriter {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	return &jsonWriter{w: bw, enc: enc}
}

func (w *jsonWriter) Flush() error {
	if err := w.enc.Encode(w.document()); err != nil {
		return err
	}
	w.items = nil
	return w.w.Flush()
}

// jsonlWriter streams one JSON object per line.
type jsonlWriter struct {
	w   *bufio.Writer
	enc *json.Encoder
}

func newJSONLWriter(w io.Writer) *jsonlWriter {
	bw := bufio.NewWriter(w)
	return &jsonlWriter{w: bw, enc: json.NewEncoder(bw)}
}

func (w *jsonlWriter) Write(record any) error {
	if err := w.enc.Encode(record); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *jsonlWriter) Flush() error {
	return w.w.Flush()
}
