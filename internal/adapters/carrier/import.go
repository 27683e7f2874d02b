package carrier

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/growshop/internal/domain"
)

var ErrMissingColumns = errors.New("la planilla no tiene columnas de referencia y tracking")

var (
	referenceHeaders = []string{"REFERENCIA", "REF", "REFERENCE", "REFERENCIA_ENVIO"}
	trackingHeaders  = []string{"TRACKING", "N_SEGUIMIENTO", "NRO_SEGUIMIENTO", "NUMERO_SEGUIMIENTO", "NUMERO_DE_SEGUIMIENTO", "OT"}
)

const maxImportBytes = 10 << 20

type TrackingRow struct {
	Line      int
	Reference string
	Tracking  string
}

type ParseResult struct {
	Rows []TrackingRow
	// Malformed cuenta filas con referencia o tracking vacíos.
	Malformed int
}

func (p *ParseResult) Total() int { return len(p.Rows) + p.Malformed }

// ParseTrackingFile lee un CSV (coma o punto y coma) o un XLSX devuelto por el courier.
func ParseTrackingFile(name string, r io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImportBytes))
	if err != nil {
		return nil, err
	}
	var rows [][]string
	if isXLSX(name, data) {
		rows, err = readXLSX(data)
	} else {
		rows, err = readCSV(data)
	}
	if err != nil {
		return nil, err
	}
	return parseRows(rows)
}

func isXLSX(name string, data []byte) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".xlsx" || ext == ".xlsm" {
		return true
	}
	return bytes.HasPrefix(data, []byte("PK\x03\x04"))
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xlsx inválido: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrMissingColumns
	}
	return f.GetRows(sheets[0])
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	first, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	cr := csv.NewReader(bytes.NewReader(data))
	if strings.Count(first, ";") > strings.Count(first, ",") {
		cr.Comma = ';'
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv inválido: %w", err)
	}
	return rows, nil
}

func parseRows(rows [][]string) (*ParseResult, error) {
	header := -1
	refCol, trkCol := -1, -1
	for i, row := range rows {
		refCol, trkCol = findColumn(row, referenceHeaders), findColumn(row, trackingHeaders)
		if refCol >= 0 && trkCol >= 0 {
			header = i
			break
		}
		if !blank(row) {
			break
		}
	}
	if header < 0 {
		return nil, ErrMissingColumns
	}
	res := &ParseResult{}
	for i := header + 1; i < len(rows); i++ {
		row := rows[i]
		if blank(row) {
			continue
		}
		ref := NormalizeReference(cell(row, refCol))
		trk := strings.TrimSpace(cell(row, trkCol))
		if ref == "" || trk == "" {
			res.Malformed++
			continue
		}
		res.Rows = append(res.Rows, TrackingRow{Line: i + 1, Reference: ref, Tracking: trk})
	}
	return res, nil
}

// NormalizeReference deja la referencia en mayúsculas sin "#" ni espacios.
func NormalizeReference(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToUpper(strings.ReplaceAll(domain.Slugify(h), "-", "_"))
}

func findColumn(row []string, names []string) int {
	for i, h := range row {
		nh := normalizeHeader(h)
		for _, n := range names {
			if nh == n {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
