package output

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// tableWriter renders Row records with go-pretty. All records in one flush
// share the header of the first.
type tableWriter struct {
	buffer
	out   io.Writer
	title string
}

func newTableWriter(w io.Writer, title string) *tableWriter {
	return &tableWriter{out: w, title: title}
}

func (w *tableWriter) Write(record any) error {
	if _, ok := record.(Row); !ok {
		return fmt.Errorf("%T cannot be shown as a table row", record)
	}
	return w.buffer.Write(record)
}

func (w *tableWriter) Flush() error {
	if len(w.items) == 0 {
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w.out)
	t.SetStyle(table.StyleLight)
	if w.title != "" {
		t.SetTitle(w.title)
	}

	header := w.items[0].(Row).TableHeader()
	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, item := range w.items {
		t.AppendRow(table.Row(item.(Row).TableRow()))
	}
	t.Render()

	w.items = nil
	return nil
}
