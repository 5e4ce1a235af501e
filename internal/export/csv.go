package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"custid/internal/services"
)

// Supported CSV encodings.
const (
	EncodingUTF8    = "utf-8"
	EncodingUTF8BOM = "utf-8-bom"
	EncodingSJIS    = "shift_jis"
)

func encoderFor(name string) (*encoding.Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf8":
		return nil, nil
	case EncodingUTF8BOM, "utf8-bom":
		return unicode.UTF8BOM.NewEncoder(), nil
	case EncodingSJIS, "sjis", "shift-jis", "cp932":
		return encoding.ReplaceUnsupported(japanese.ShiftJIS.NewEncoder()), nil
	default:
		return nil, services.Wrap(services.ErrValidation, "export", "encoding",
			fmt.Sprintf("unsupported encoding %q (use %s, %s or %s)", name, EncodingUTF8, EncodingUTF8BOM, EncodingSJIS), nil)
	}
}

// WriteCSV writes t to w with a header row. NULL becomes an empty field.
func WriteCSV(w io.Writer, t *Table, enc string) error {
	encoder, err := encoderFor(enc)
	if err != nil {
		return err
	}

	var tw *transform.Writer
	if encoder != nil {
		tw = transform.NewWriter(w, encoder)
		w = tw
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, c := range row {
			record[i] = c.Value
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return fmt.Errorf("flush encoder: %w", err)
		}
	}
	return nil
}

// DefaultFilename names an export by timestamp.
func DefaultFilename(now time.Time) string {
	return "query-result-" + now.Format("20060102-150405") + ".csv"
}

// WriteCSVFile writes t under dir (relative names) or at path (absolute).
// It returns the file written.
func WriteCSVFile(dir, name string, t *Table, enc string) (string, error) {
	target := name
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, name)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create csv file: %w", err)
	}
	if err := WriteCSV(f, t, enc); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close csv file: %w", err)
	}
	return target, nil
}
