package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/gaurav-prasanna/docrows/core"
)

// MergeCSV concatenates per-document CSVs into w. The first header is
// written once; every other input must carry the same header. The first
// column is renumbered 1..total. It returns the number of data rows written.
func MergeCSV(w io.Writer, inputs ...io.Reader) (int, error) {
	out := csv.NewWriter(w)
	var header []string
	total := 0

	for i, in := range inputs {
		r := csv.NewReader(in)
		h, err := r.Read()
		if errors.Is(err, io.EOF) {
			continue
		}
		if err != nil {
			return total, fmt.Errorf("reading header of input %d: %w", i+1, err)
		}

		if header == nil {
			header = h
			if err := out.Write(header); err != nil {
				return total, fmt.Errorf("writing header: %w", err)
			}
		} else if !slices.Equal(header, h) {
			return total, fmt.Errorf("input %d: %w", i+1, core.ErrHeaderMismatch)
		}

		for {
			rec, err := r.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return total, fmt.Errorf("reading input %d: %w", i+1, err)
			}
			total++
			rec[0] = strconv.Itoa(total)
			if err := out.Write(rec); err != nil {
				return total, fmt.Errorf("writing row %d: %w", total, err)
			}
		}
	}

	out.Flush()
	if err := out.Error(); err != nil {
		return total, fmt.Errorf("flushing merged CSV: %w", err)
	}
	return total, nil
}

// MergeFiles merges the CSV files at srcs, in order, into dst.
func MergeFiles(dst string, srcs []string) (int, error) {
	readers := make([]io.Reader, 0, len(srcs))
	for _, src := range srcs {
		f, err := os.Open(src)
		if err != nil {
			return 0, fmt.Errorf("opening %s: %w", src, err)
		}
		defer f.Close()
		readers = append(readers, f)
	}

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", dst, err)
	}

	n, err := MergeCSV(out, readers...)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing %s: %w", dst, cerr)
	}
	return n, err
}
