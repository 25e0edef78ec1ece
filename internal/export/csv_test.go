package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/csvspectre/internal/dataset"
	"github.com/ppiankov/csvspectre/internal/sqldump"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestWriteTableCSV(t *testing.T) {
	dir := t.TempDir()
	res := sqldump.Extract("INSERT INTO Artists (id, name) VALUES (1, 'Jane, Doe'), (2, 'John Smith');")
	require.Len(t, res.Tables, 1)

	path, err := WriteTableCSV(dir, &res.Tables[0])
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "artists_data.csv"), path)
	assert.Equal(t, "id,name\n1,\"Jane, Doe\"\n2,John Smith\n", readFile(t, path))
}

func TestWriteTableCSV_RoundTripsThroughLoader(t *testing.T) {
	dir := t.TempDir()
	res := sqldump.Extract("INSERT INTO t (a, b) VALUES ('x \"q\"', 'O''Brien');")

	path, err := WriteTableCSV(dir, &res.Tables[0])
	require.NoError(t, err)

	ds, err := dataset.Load(path, dataset.DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{`x "q"`, "O'Brien"}}, ds.Records())
}

func TestWriteTables(t *testing.T) {
	dir := t.TempDir()
	res := sqldump.Extract("INSERT INTO a (x) VALUES (1);\nINSERT INTO B (y) VALUES (2);")

	paths, err := WriteTables(dir, res)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_data.csv"),
		filepath.Join(dir, "b_data.csv"),
	}, paths)
}

func TestWriteDataset_Merged(t *testing.T) {
	dir := t.TempDir()
	opts := dataset.DefaultLoadOptions()

	a, err := dataset.Read("people.csv", strings.NewReader("id,name\n1,Ann\n2,Bob\n"), opts)
	require.NoError(t, err)
	b, err := dataset.Read("pets.csv", strings.NewReader("id\n7\n"), opts)
	require.NoError(t, err)

	m, err := dataset.Merge(dataset.MergedFileName, []*dataset.Dataset{a, b})
	require.NoError(t, err)

	path := filepath.Join(dir, dataset.MergedFileName)
	require.NoError(t, WriteDataset(path, m))
	assert.Equal(t, "people__id,people__name,pets__id\n1,Ann,7\n2,Bob,\n", readFile(t, path))
}

func TestSaveSQL(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveSQL(dir, "CREATE TABLE t (a INT);\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SQLFileName), path)
	assert.Equal(t, "CREATE TABLE t (a INT);\n", readFile(t, path))
}

func TestWriteTableCSV_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	tbl := &sqldump.TableExtract{Name: "t", Columns: []string{"a"}, Rows: [][]string{{"1"}}}

	path, err := WriteTableCSV(dir, tbl)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
