/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package delaytest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/facebook/rtdelay/timespec"
)

var header = []string{
	"Clock Time",
	"Delay Error",
}

// invalidField is written in place of a value we failed to compute
const invalidField = "NaN"

// CSVRecords returns elapsed and error in seconds. Must by synced with `header` variable.
func (r *IterationResult) CSVRecords() []string {
	return []string{
		formatSeconds(r.Elapsed, r.ElapsedValid),
		formatSeconds(r.Error, r.ErrorValid),
	}
}

func formatSeconds(t timespec.TimePoint, valid bool) string {
	if !valid {
		return invalidField
	}
	return strconv.FormatFloat(t.Seconds(), 'f', 9, 64)
}

// Exporter is something that can store IterationResult somewhere
type Exporter interface {
	Export(*IterationResult) error
	Close() error
}

// CSVExporter writes results as semicolon separated rows into given writer
type CSVExporter struct {
	csvwriter     *csv.Writer
	closer        io.Closer
	printedHeader bool
}

// NewCSVExporter returns new CSVExporter
func NewCSVExporter(w io.Writer) *CSVExporter {
	csvwriter := csv.NewWriter(w)
	csvwriter.Comma = ';'
	e := &CSVExporter{csvwriter: csvwriter}
	if c, ok := w.(io.Closer); ok {
		e.closer = c
	}
	return e
}

// NewCSVFileExporter creates or truncates the file and returns CSVExporter writing into it
func NewCSVFileExporter(path string) (*CSVExporter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening export file: %w", err)
	}
	return NewCSVExporter(f), nil
}

func (e *CSVExporter) writeHeader() error {
	if e.printedHeader {
		return nil
	}
	if err := e.csvwriter.Write(header); err != nil {
		return err
	}
	e.printedHeader = true
	return nil
}

// Export implements Exporter interface
func (e *CSVExporter) Export(r *IterationResult) error {
	if err := e.writeHeader(); err != nil {
		return err
	}
	if err := e.csvwriter.Write(r.CSVRecords()); err != nil {
		return err
	}
	e.csvwriter.Flush()
	return e.csvwriter.Error()
}

// Close implements Exporter interface. Header is written even if nothing was exported.
func (e *CSVExporter) Close() error {
	err := e.writeHeader()
	e.csvwriter.Flush()
	if err == nil {
		err = e.csvwriter.Error()
	}
	if e.closer != nil {
		if cerr := e.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
