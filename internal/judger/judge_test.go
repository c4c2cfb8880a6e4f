package judger

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"

	"github.com/ZJUSCT/arena/internal/catalog"
	"github.com/ZJUSCT/arena/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputsMatch(t *testing.T) {
	assert.True(t, outputsMatch("3\n", "3"))
	assert.True(t, outputsMatch("1 2  \r\n3\n\n", "1 2\n3"))
	assert.False(t, outputsMatch("1 2\n3", "1 2 3"))
	assert.False(t, outputsMatch(" 3", "3"))
}

func TestVerdictAccepted(t *testing.T) {
	assert.True(t, (&Verdict{Status: StatusAccepted}).Accepted())
	assert.False(t, (&Verdict{Status: StatusWrongAnswer}).Accepted())
}

func TestWorkspaceArchive(t *testing.T) {
	lang := config.Language{ID: "py", SourceFile: "main.py", Run: "python3 main.py"}
	problem := &catalog.Problem{
		ID: "sum",
		TestCases: []catalog.TestCase{
			{Name: "1", Input: "1 2\n", Output: "3\n"},
			{Name: "2", Input: "5 5\n", Output: "10\n"},
		},
	}

	archive, err := tarFiles(workspaceFiles(lang, "print(sum(map(int, input().split())))", problem))
	require.NoError(t, err)

	tr := tar.NewReader(bytes.NewReader(archive))
	got := map[string]string{}
	var dirs []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, 1000, hdr.Uid)
		if hdr.Typeflag == tar.TypeDir {
			dirs = append(dirs, hdr.Name)
			continue
		}
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		got[hdr.Name] = string(body)
	}

	assert.Equal(t, []string{"work/", "work/tests/"}, dirs)
	assert.Equal(t, "print(sum(map(int, input().split())))", got["work/main.py"])
	assert.Equal(t, "1 2\n", got["work/tests/1.in"])
	assert.Equal(t, "5 5\n", got["work/tests/2.in"])
	assert.NotContains(t, got, "work/tests/1.out")
}
