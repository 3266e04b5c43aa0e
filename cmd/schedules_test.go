package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calimport/internal/importer"
)

func TestListSchedules(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "schedule1.csv", testCSV)
	writeCSV(t, dir, "schedule5.csv", testCSV)

	var out bytes.Buffer
	require.NoError(t, listSchedules(&out, importer.NewCatalog(dir)))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, []string{"NUMBER", "NAME", "FILE", "STATUS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1", "Section", "A", "schedule1.csv", "available"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2", "Section", "B", "schedule2.csv", "missing"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"5", "DBM", "schedule5.csv", "available"}, strings.Fields(lines[5]))
	assert.Equal(t, []string{"6", "HHM", "schedule6.csv", "missing"}, strings.Fields(lines[6]))
}

func TestSchedulesCommand(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "schedule2.csv", testCSV)

	out, err := execute(t, "schedules", "--sheets-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "schedule2.csv")
	assert.Equal(t, 1, strings.Count(out, "available"))
	assert.Equal(t, 5, strings.Count(out, "missing"))
}
