package archive

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report-converter/internal/serialize"
)

func artifacts() []serialize.Artifact {
	return []serialize.Artifact{
		{Path: "Sales.pbip", Content: []byte(`{"version":"1.0"}`)},
		{Path: "Sales.Report/definition/report.json", Content: []byte(`{}`)},
		{Path: "Sales.Report/.platform", Content: []byte(`{"metadata":{}}`)},
	}
}

func TestPackIsByteIdentical(t *testing.T) {
	first, err := Pack(artifacts())
	require.NoError(t, err)

	second, err := Pack(artifacts())
	require.NoError(t, err)

	assert.Equal(t, first, second)

	reversed := artifacts()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}

	third, err := Pack(reversed)
	require.NoError(t, err)
	assert.Equal(t, first, third, "input order does not matter")
}

func TestPackContents(t *testing.T) {
	blob, err := Pack(artifacts())
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	require.NoError(t, err)

	var names []string

	for _, f := range r.File {
		names = append(names, f.Name)
		assert.True(t, modTime.Equal(f.Modified), f.Name)

		rc, err := f.Open()
		require.NoError(t, err)

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())

		if f.Name == "Sales.pbip" {
			assert.Equal(t, `{"version":"1.0"}`, string(data))
		}
	}

	assert.Equal(t, []string{
		"Sales.Report/.platform",
		"Sales.Report/definition/report.json",
		"Sales.pbip",
	}, names)
}

func TestPackRejectsBadPaths(t *testing.T) {
	_, err := Pack([]serialize.Artifact{{Path: "a"}, {Path: "a"}})
	require.ErrorIs(t, err, ErrDuplicatePath)

	_, err = Pack([]serialize.Artifact{{Path: ""}})
	require.ErrorIs(t, err, ErrEmptyPath)
}

func TestPackEmpty(t *testing.T) {
	blob, err := Pack(nil)
	require.NoError(t, err)

	r, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	require.NoError(t, err)
	assert.Empty(t, r.File)
}
