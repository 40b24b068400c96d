package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opendomesday/domesday/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `name,gender,pase_name,description,holder_1066,lord_1066,demesne_1086,subtenanted_1086,subtenant_1086,editor,editorial_status
Edward,Male,Edward 15,king of England,"£8,230.05","6,924.10",0,0,0,cpl,2 of 5
Godric,Male,Godric 57,thegn of Berkshire,0,0,0,0,0,,1 of 5
`

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "landholders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ImportsRows(t *testing.T) {
	st := newTestStore(t)
	res, err := New(st).Load(context.Background(), writeCSV(t, sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 0, res.Skipped)
	assert.NotEmpty(t, res.ImportID)

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Currency punctuation is stripped to an exact decimal
	lh, err := st.Get(context.Background(), "Edward 15")
	require.NoError(t, err)
	assert.Equal(t, "8230.05", lh.Holder1066.String())
	assert.Equal(t, "6924.1", lh.Lord1066.String())
	assert.True(t, lh.Subtenant1086.IsZero())
}

func TestLoad_Idempotent(t *testing.T) {
	st := newTestStore(t)
	path := writeCSV(t, sampleCSV)
	ldr := New(st)

	_, err := ldr.Load(context.Background(), path)
	require.NoError(t, err)
	res, err := ldr.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Imported)

	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count, "re-import must replace, not duplicate")

	// The search index must not accumulate stale entries either
	hits, err := st.Search(context.Background(), "godric")
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestLoad_SkipsBadRows(t *testing.T) {
	csv := sampleCSV +
		"Bad,Male,Wulfric 280,holder of Staffordshire,not-a-number,0,0,0,0,,1 of 5\n" +
		"NoID,Male,,some description,0,0,0,0,0,,1 of 5\n"

	st := newTestStore(t)
	res, err := New(st).Load(context.Background(), writeCSV(t, csv))
	require.NoError(t, err)

	assert.Equal(t, 4, res.TotalRows)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Failed, 2)
	assert.Contains(t, res.Failed[0].Reason, "holder_1066")
	assert.Contains(t, res.Failed[1].Reason, "missing identifier")

	// Skipped rows reach neither the table nor the index
	count, err := st.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	hits, err := st.Search(context.Background(), "staffordshire")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLoad_WithoutHeader(t *testing.T) {
	// The raw PASE export carries no header row; columns map positionally.
	csv := `Edward,Male,Edward 15,king of England,"£8,230.05","6,924.10",0,0,0,cpl,2 of 5
Godric,Male,Godric 57,thegn of Berkshire,0,0,0,0,0,,1 of 5
`
	st := newTestStore(t)
	res, err := New(st).Load(context.Background(), writeCSV(t, csv))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
}

func TestLoad_ReorderedHeader(t *testing.T) {
	csv := `pase_name,name,gender,description,holder_1066,lord_1066,demesne_1086,subtenanted_1086,subtenant_1086,editor,editorial_status
Edward 15,Edward,Male,king of England,10,0,0,0,0,,complete
`
	st := newTestStore(t)
	res, err := New(st).Load(context.Background(), writeCSV(t, csv))
	require.NoError(t, err)
	require.Equal(t, 1, res.Imported)

	lh, err := st.Get(context.Background(), "Edward 15")
	require.NoError(t, err)
	assert.Equal(t, "Edward", lh.Name.String)
	assert.Equal(t, "10", lh.Holder1066.String())
}

func TestLoad_HeaderMissingColumn(t *testing.T) {
	csv := "name,gender,pase_name,description\nEdward,Male,Edward 15,king\n"

	st := newTestStore(t)
	_, err := New(st).Load(context.Background(), writeCSV(t, csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestLoadReader_BOM(t *testing.T) {
	st := newTestStore(t)
	res, err := New(st).LoadReader(context.Background(), "bom.csv",
		strings.NewReader("\xEF\xBB\xBF"+sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported)
}

func TestLoad_SearchScenario(t *testing.T) {
	st := newTestStore(t)
	_, err := New(st).Load(context.Background(), writeCSV(t, sampleCSV))
	require.NoError(t, err)

	hits, err := st.Search(context.Background(), "godric")
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.NotNil(t, hits[0].Name)
	assert.Equal(t, "Godric", *hits[0].Name)
	assert.Equal(t, "Godric 57", hits[0].PASEName)
	assert.Equal(t, "thegn of Berkshire", hits[0].Description)
}

func TestLoad_RecordsImportAudit(t *testing.T) {
	st := newTestStore(t)
	res, err := New(st).Load(context.Background(), writeCSV(t, sampleCSV))
	require.NoError(t, err)

	imports, err := st.Imports(context.Background())
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, res.ImportID, imports[0].ID)
	assert.Equal(t, "landholders.csv", imports[0].Source)
	assert.Equal(t, 2, imports[0].Imported)
}

func TestLoad_MissingFile(t *testing.T) {
	st := newTestStore(t)
	_, err := New(st).Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
