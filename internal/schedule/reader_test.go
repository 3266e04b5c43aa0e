package schedule

import (
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Subject,Start Date,Start Time,End Date,End Time,Description\n"

func writeSchedule(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readAll(t *testing.T, r *Reader) ([]RawRow, error) {
	t.Helper()
	var rows []RawRow
	for row, err := range r.Rows() {
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func TestOpen_ReadsRowsByHeader(t *testing.T) {
	path := writeSchedule(t, header+
		"Anatomy,05/03/2024,09:00,05/03/2024,10:00,\"Hall 1, east wing\"\n"+
		"Physiology,06/03/2024,11:00,06/03/2024,12:00,\n")

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	rows, err := readAll(t, r)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Anatomy", rows[0][ColumnSubject])
	assert.Equal(t, "Hall 1, east wing", rows[0][ColumnDescription])
	assert.Equal(t, "Physiology", rows[1][ColumnSubject])
	assert.Equal(t, []string{"Subject", "Start Date", "Start Time", "End Date", "End Time", "Description"}, r.Header())
}

func TestOpen_SkipsBOM(t *testing.T) {
	path := writeSchedule(t, "\xEF\xBB\xBF"+header+"Anatomy,05/03/2024,09:00,05/03/2024,10:00,\n")

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	rows, err := readAll(t, r)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Anatomy", rows[0][ColumnSubject])
}

func TestOpen_ShortRowsTolerated(t *testing.T) {
	path := writeSchedule(t, header+"Anatomy,05/03/2024\n")

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	rows, err := readAll(t, r)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, present := rows[0][ColumnEndTime]
	assert.False(t, present)
}

func TestOpen_HeaderOnlyAndEmpty(t *testing.T) {
	for name, content := range map[string]string{"header only": header, "empty": ""} {
		t.Run(name, func(t *testing.T) {
			r, err := Open(writeSchedule(t, content))
			require.NoError(t, err)
			defer r.Close()

			rows, err := readAll(t, r)
			require.NoError(t, err)
			assert.Empty(t, rows)
		})
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestOpen_BareQuotesKept(t *testing.T) {
	path := writeSchedule(t, header+
		"Anatomy,05/03/2024,09:00,05/03/2024,10:00,Room 5 \"B\" wing\n"+
		"Physiology,06/03/2024,11:00,06/03/2024,12:00,\"Lab \"2\"\n")

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	rows, err := readAll(t, r)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `Room 5 "B" wing`, rows[0][ColumnDescription])
	assert.Equal(t, "Physiology", rows[1][ColumnSubject])
}

func TestCollect_BareQuoteRowBecomesEvent(t *testing.T) {
	content := header + "Anatomy,05/03/2024,09:00,05/03/2024,10:00,Room 5 \"B\" wing\n"

	r := NewReader(io.NopCloser(strings.NewReader(content)))
	res, err := Collect(r, Normalizer{Location: time.UTC})
	require.NoError(t, err)

	assert.Equal(t, 1, res.RowsRead)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "Anatomy", res.Events[0].Summary)
	assert.Equal(t, `Room 5 "B" wing`, res.Events[0].Description)
}

func TestRows_ReadError(t *testing.T) {
	errDisk := errors.New("disk gone")
	src := io.MultiReader(
		strings.NewReader(header+"Anatomy,05/03/2024,09:00,05/03/2024,10:00,\n"),
		iotest.ErrReader(errDisk))

	r := NewReader(io.NopCloser(src))
	rows, err := readAll(t, r)
	require.Error(t, err)
	assert.Len(t, rows, 1)
	assert.ErrorIs(t, err, errDisk)

	var pe *ParseError
	assert.False(t, errors.As(err, &pe))
}

func TestFinish_WrapsCSVParseError(t *testing.T) {
	r := NewReader(io.NopCloser(strings.NewReader("")))
	r.finish(&csv.ParseError{StartLine: 3, Line: 3, Column: 1, Err: csv.ErrQuote})

	var pe *ParseError
	require.True(t, errors.As(r.err, &pe))
	assert.Equal(t, 3, pe.Line)
	assert.ErrorIs(t, r.err, csv.ErrQuote)
}

func TestRows_StopsEarly(t *testing.T) {
	path := writeSchedule(t, header+
		"A,05/03/2024,09:00,05/03/2024,10:00,\n"+
		"B,05/03/2024,09:00,05/03/2024,10:00,\n"+
		"C,05/03/2024,09:00,05/03/2024,10:00,\n")

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	for row, err := range r.Rows() {
		require.NoError(t, err)
		assert.Equal(t, "A", row[ColumnSubject])
		break
	}

	rest, err := readAll(t, r)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "B", rest[0][ColumnSubject])
}

func TestCollect_SkipsIncompleteRows(t *testing.T) {
	var b strings.Builder
	b.WriteString(header)
	for i := 1; i <= 10; i++ {
		subject := "Lecture"
		if i%3 == 0 {
			subject = ""
		}
		b.WriteString(subject + ",05/03/2024,09:00,05/03/2024,10:00,\n")
	}

	r := NewReader(io.NopCloser(strings.NewReader(b.String())))
	res, err := Collect(r, Normalizer{Location: time.UTC})
	require.NoError(t, err)

	assert.Equal(t, 10, res.RowsRead)
	assert.Equal(t, 3, res.RowsSkipped)
	assert.Len(t, res.Events, 7)
}

func TestCollect_TimestampErrorAborts(t *testing.T) {
	content := header +
		"A,05/03/2024,09:00,05/03/2024,10:00,\n" +
		"B,05/03/2024,late,05/03/2024,10:00,\n" +
		"C,05/03/2024,09:00,05/03/2024,10:00,\n"

	r := NewReader(io.NopCloser(strings.NewReader(content)))
	res, err := Collect(r, Normalizer{Location: time.UTC})

	var tsErr *TimestampError
	require.True(t, errors.As(err, &tsErr))
	assert.Len(t, res.Events, 1)
}
