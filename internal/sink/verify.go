package sink

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

var batchFile = regexp.MustCompile(`^batch_(\d{6,})\.(csv|jsonl)$`)

// Report is the outcome of re-reading a directory of batch files
type Report struct {
	Dir      string
	Format   string
	Batches  int
	Records  int
	ByType   map[string]int
	Problems []string
}

// OK reports whether every batch passed
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

func (r *Report) problem(format string, args ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Verify re-reads every batch file of format in dir and checks the header,
// the field count of every row, the batch id of every record against its
// file, record id uniqueness and that batch ids run 1..N without gaps. A
// positive batchSize also bounds the records per file. Only I/O failures are
// returned as errors; content problems are collected in the report.
func Verify(fs afero.Fs, dir, format string, batchSize int) (*Report, error) {
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "jsonl" {
		return nil, errors.Mark(errors.Newf("unknown output format %q", format), errors.ErrConfig)
	}

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", dir)
	}

	report := &Report{Dir: dir, Format: format, ByType: make(map[string]int)}
	var ids []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".tmp") {
			report.problem("%s: incomplete write", e.Name())
			continue
		}
		m := batchFile.FindStringSubmatch(e.Name())
		if m == nil || m[2] != format {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			report.problem("%s: bad batch number", e.Name())
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		report.problem("no %s batch files", format)
		return report, nil
	}
	sort.Ints(ids)

	seen := make(map[string]string)
	for i, id := range ids {
		if id != i+1 {
			report.problem("batch %d missing", i+1)
			break
		}
	}
	for _, id := range ids {
		name := BatchFileName(id, format)
		data, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", name)
		}

		var records []model.Record
		if format == "csv" {
			records = readCSV(report, name, data)
		} else {
			records = readJSONL(report, name, data)
		}

		report.Batches++
		if len(records) == 0 {
			report.problem("%s: no records", name)
		}
		if batchSize > 0 && len(records) > batchSize {
			report.problem("%s: %d records, batch size is %d", name, len(records), batchSize)
		}
		for _, rec := range records {
			report.Records++
			report.ByType[rec.QuestionType]++
			checkRecord(report, name, id, rec, seen)
		}
	}
	return report, nil
}

func checkRecord(report *Report, name string, batch int, rec model.Record, seen map[string]string) {
	if rec.ID == "" {
		report.problem("%s: record without id", name)
	} else if prev, dup := seen[rec.ID]; dup {
		report.problem("%s: record %s already in %s", name, rec.ID, prev)
	} else {
		seen[rec.ID] = name
	}
	if rec.BatchID != batch {
		report.problem("%s: record %s carries batch id %d", name, rec.ID, rec.BatchID)
	}
	if !model.QuestionType(rec.QuestionType).Valid() {
		report.problem("%s: record %s has unknown question type %q", name, rec.ID, rec.QuestionType)
	}
	if rec.Difficulty < 1 || rec.Difficulty > 5 {
		report.problem("%s: record %s difficulty %d outside [1, 5]", name, rec.ID, rec.Difficulty)
	}
}

// readCSV parses the fields verification looks at; the rest only has to be present
func readCSV(report *Report, name string, data []byte) []model.Record {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		report.problem("%s: %v", name, err)
		return nil
	}
	if len(rows) == 0 || !slices.Equal(rows[0], model.RecordHeader) {
		report.problem("%s: header does not match", name)
		return nil
	}

	col := make(map[string]int, len(model.RecordHeader))
	for i, h := range model.RecordHeader {
		col[h] = i
	}
	var out []model.Record
	for n, row := range rows[1:] {
		if len(row) != len(model.RecordHeader) {
			report.problem("%s: row %d has %d fields, want %d", name, n+2, len(row), len(model.RecordHeader))
			continue
		}
		rec := model.Record{
			ID:           row[col["id"]],
			QuestionType: row[col["question_type"]],
		}
		var err error
		if rec.Difficulty, err = strconv.Atoi(row[col["difficulty"]]); err != nil {
			report.problem("%s: row %d difficulty %q", name, n+2, row[col["difficulty"]])
		}
		if rec.BatchID, err = strconv.Atoi(row[col["batch_id"]]); err != nil {
			report.problem("%s: row %d batch id %q", name, n+2, row[col["batch_id"]])
		}
		out = append(out, rec)
	}
	return out
}

func readJSONL(report *Report, name string, data []byte) []model.Record {
	var out []model.Record
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for n := 1; sc.Scan(); n++ {
		dec := json.NewDecoder(bytes.NewReader(sc.Bytes()))
		dec.DisallowUnknownFields()
		var rec model.Record
		if err := dec.Decode(&rec); err != nil {
			report.problem("%s: line %d: %v", name, n, err)
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		report.problem("%s: %v", name, err)
	}
	return out
}
