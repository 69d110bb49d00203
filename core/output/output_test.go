package output

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/docrows/core"
)

const header = "document_id,category,topic,concept,content,url,link_to,tags\n"

func TestMergeCSV_ThreeInputs(t *testing.T) {
	a := header + "1,K_a,a,A1,\"multi\nline, with comma\",https://x.io/a,,None\n2,K_a,a,A2,c,https://x.io/a,,None\n"
	b := header + "1,K_b,b,B1,c,https://x.io/b,,None\n"
	c := header + "1,K_c,c,C1,c,https://x.io/c,,None\n2,K_c,c,C2,c,https://x.io/c,,None\n3,K_c,c,C3,c,https://x.io/c,,None\n"

	var buf bytes.Buffer
	n, err := MergeCSV(&buf, strings.NewReader(a), strings.NewReader(b), strings.NewReader(c))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	assert.Equal(t, 1, strings.Count(buf.String(), "document_id,"))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 7)
	for i, rec := range records[1:] {
		assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}[i], rec[0])
	}
	assert.Equal(t, "multi\nline, with comma", records[1][4])
	assert.Equal(t, "C3", records[6][3])
}

func TestMergeCSV_HeaderMismatch(t *testing.T) {
	a := header + "1,K,a,A,c,u,,None\n"
	b := "id,other\n1,x\n"

	_, err := MergeCSV(&bytes.Buffer{}, strings.NewReader(a), strings.NewReader(b))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrHeaderMismatch))
}

func TestMergeCSV_SkipsEmptyInput(t *testing.T) {
	var buf bytes.Buffer
	n, err := MergeCSV(&buf, strings.NewReader(""), strings.NewReader(header+"9,K,a,A,c,u,,None\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, header+"1,K,a,A,c,u,,None\n", buf.String())
}

func TestMergeFiles(t *testing.T) {
	dir := t.TempDir()
	one := filepath.Join(dir, "one.csv")
	two := filepath.Join(dir, "two.csv")
	require.NoError(t, os.WriteFile(one, []byte(header+"1,K,a,A,c,u,,None\n"), 0644))
	require.NoError(t, os.WriteFile(two, []byte(header+"1,K,b,B,c,u,,None\n"), 0644))

	dst := filepath.Join(dir, "multi_final.csv")
	n, err := MergeFiles(dst, []string{one, two})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, header+"1,K,a,A,c,u,,None\n2,K,b,B,c,u,,None\n", string(data))

	_, err = MergeFiles(dst, []string{filepath.Join(dir, "missing.csv")})
	assert.Error(t, err)
}

func TestWorkspace(t *testing.T) {
	ws, err := NewWorkspace(filepath.Join(t.TempDir(), "run", "001"))
	require.NoError(t, err)

	path, err := ws.Write(ArtifactSections, "[TOPIC: t]\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws.Dir(), ArtifactSections), path)

	got, err := ws.Read(ArtifactSections)
	require.NoError(t, err)
	assert.Equal(t, "[TOPIC: t]\n", got)

	_, err = ws.Read(ArtifactRefined)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrMissingArtifact))
	assert.Contains(t, err.Error(), ArtifactRefined)
}

func TestWriter(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	path, err := w.WriteDocument("https://kubernetes.io/docs/concepts/ingress/", []byte("x"), ".csv")
	require.NoError(t, err)
	assert.Equal(t, "kubernetes_io_docs_concepts_ingress.csv", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))

	assert.Equal(t, "x_io_a_b", Slug("https://x.io/a/b"))
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)
}

func TestDocumentWorkspace(t *testing.T) {
	root := t.TempDir()
	ws, err := DocumentWorkspace(root, "RUN", 3, "https://kubernetes.io/docs/concepts/ingress/")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "RUN", "3_kubernetes_io_docs_concepts_ingress"), ws.Dir())
	assert.DirExists(t, ws.Dir())
}
