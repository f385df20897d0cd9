package pipeline

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"ontarioseed/internal"
)

const (
	HighSchoolSheet     = "high_schools"
	CourseProviderSheet = "course_providers"
)

type stagedFile struct {
	tmpPath    string
	finalPath  string
	backupPath string
	replaced   bool
	committed  bool
}

// stagedOutputs are files written next to their targets that are moved into
// place together by commit.
type stagedOutputs []*stagedFile

func (s stagedOutputs) discard() {
	for _, f := range s {
		_ = os.Remove(f.tmpPath)
	}
}

// commit renames every staged file over its target. Targets replaced before a
// failing rename are restored from their backups.
func (s stagedOutputs) commit() error {
	for _, f := range s {
		if err := f.commit(); err != nil {
			s.rollback()
			s.discard()
			return fmt.Errorf("move %s into place: %w", f.finalPath, err)
		}
	}
	for _, f := range s {
		if f.replaced {
			_ = os.Remove(f.backupPath)
		}
	}
	return nil
}

func (f *stagedFile) commit() error {
	if _, err := os.Lstat(f.finalPath); err == nil {
		f.backupPath = f.tmpPath + ".bak"
		if err := os.Rename(f.finalPath, f.backupPath); err != nil {
			return err
		}
		f.replaced = true
	}
	if err := os.Rename(f.tmpPath, f.finalPath); err != nil {
		if f.replaced {
			_ = os.Rename(f.backupPath, f.finalPath)
			f.replaced = false
		}
		return err
	}
	f.committed = true
	return nil
}

func (s stagedOutputs) rollback() {
	for i := len(s) - 1; i >= 0; i-- {
		f := s[i]
		if !f.committed {
			continue
		}
		if f.replaced {
			_ = os.Rename(f.backupPath, f.finalPath)
		} else {
			_ = os.Remove(f.finalPath)
		}
		f.committed = false
	}
}

// WriteSeedCSVs writes both seed sets. Each file is staged next to its target
// and both are moved into place only after both were written, so a failure
// leaves previous outputs untouched.
func WriteSeedCSVs(highSchoolPath, courseProviderPath string, result internal.SeedResult) error {
	staged, err := stageSeedCSVs(highSchoolPath, courseProviderPath, result)
	if err != nil {
		return err
	}
	return staged.commit()
}

func stageSeedCSVs(highSchoolPath, courseProviderPath string, result internal.SeedResult) (stagedOutputs, error) {
	highSchoolRows := make([][]string, 0, len(result.HighSchools))
	for _, r := range result.HighSchools {
		highSchoolRows = append(highSchoolRows, r.Values())
	}
	providerRows := make([][]string, 0, len(result.CourseProviders))
	for _, r := range result.CourseProviders {
		providerRows = append(providerRows, r.Values())
	}

	hs, err := stageCSV(highSchoolPath, internal.HighSchoolColumns, highSchoolRows)
	if err != nil {
		return nil, err
	}
	cp, err := stageCSV(courseProviderPath, internal.CourseProviderColumns, providerRows)
	if err != nil {
		stagedOutputs{hs}.discard()
		return nil, err
	}
	return stagedOutputs{hs, cp}, nil
}

func stageCSV(path string, header []string, rows [][]string) (*stagedFile, error) {
	return stageFile(path, func(w io.Writer) error {
		bw := bufio.NewWriter(w)
		if err := writeQuotedCSV(bw, header, rows); err != nil {
			return err
		}
		return bw.Flush()
	})
}

// stageFile writes a temp file in the target's directory. The target itself
// is not touched.
func stageFile(path string, write func(io.Writer) error) (*stagedFile, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("write %s: target is a directory", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}

	writeErr := write(tmp)
	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr == nil {
		writeErr = os.Chmod(tmp.Name(), 0o644)
	}
	if writeErr != nil {
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("write %s: %w", path, writeErr)
	}
	return &stagedFile{tmpPath: tmp.Name(), finalPath: path}, nil
}

// writeQuotedCSV quotes every field and ends records with CRLF, which
// encoding/csv cannot be told to do.
func writeQuotedCSV(w *bufio.Writer, header []string, rows [][]string) error {
	if err := writeQuotedRecord(w, header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeQuotedRecord(w, row); err != nil {
			return err
		}
	}
	return nil
}

func writeQuotedRecord(w *bufio.Writer, fields []string) error {
	for i, field := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(field, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

// ExportSeedXLSX writes both seed sets into one workbook, one sheet each.
func ExportSeedXLSX(result internal.SeedResult, outputPath string) error {
	staged, err := stageSeedXLSX(result, outputPath)
	if err != nil {
		return err
	}
	return stagedOutputs{staged}.commit()
}

func stageSeedXLSX(result internal.SeedResult, outputPath string) (*stagedFile, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), HighSchoolSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(CourseProviderSheet); err != nil {
		return nil, err
	}

	highSchoolRows := make([][]string, 0, len(result.HighSchools))
	for _, r := range result.HighSchools {
		highSchoolRows = append(highSchoolRows, r.Values())
	}
	if err := writeSheet(f, HighSchoolSheet, internal.HighSchoolColumns, highSchoolRows); err != nil {
		return nil, err
	}

	providerRows := make([][]string, 0, len(result.CourseProviders))
	for _, r := range result.CourseProviders {
		providerRows = append(providerRows, r.Values())
	}
	if err := writeSheet(f, CourseProviderSheet, internal.CourseProviderColumns, providerRows); err != nil {
		return nil, err
	}

	return stageFile(outputPath, func(w io.Writer) error {
		return f.Write(w)
	})
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]string) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}
