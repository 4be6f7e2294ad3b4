package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-filterpack/pkg/page"
)

func TestInspectList(t *testing.T) {
	stdout, _, err := executeCommand("inspect", "list", "offices")
	require.NoError(t, err)

	assert.Contains(t, stdout, "List: offices (Offices)")
	assert.Contains(t, stdout, "Region/lookupValue")
	assert.Contains(t, stdout, "Region (Title)")
	assert.Contains(t, stdout, "all (All Offices)")
}

func TestInspectList_JSON(t *testing.T) {
	stdout, _, err := executeCommand("inspect", "list", "regions", "--json")
	require.NoError(t, err)

	var decoded struct {
		ID    string `json:"id"`
		Views []struct {
			ID string `json:"id"`
		} `json:"views"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &decoded))
	assert.Equal(t, "regions", decoded.ID)
	require.Len(t, decoded.Views, 1)
	assert.Equal(t, "all", decoded.Views[0].ID)
}

func TestInspectList_Errors(t *testing.T) {
	_, _, err := executeCommand("inspect", "list", "nope")
	require.Error(t, err)

	pagePath, _ := writeDemoFiles(t)
	_, _, err = executeCommand("inspect", "list", "offices", "--page", pagePath)
	requireExitCode(t, err, 2)
}

func TestInspectPage(t *testing.T) {
	stdout, _, err := executeCommand("inspect", "page")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Page: Office directory")
	assert.Contains(t, stdout, "Sources:")
	assert.Contains(t, stdout, "office (Office)")
	assert.Contains(t, stdout, "filterText")
}

func TestInspectPage_JSONFromFile(t *testing.T) {
	dir := t.TempDir()
	pagePath := filepath.Join(dir, "page.json")
	require.NoError(t, os.WriteFile(pagePath, []byte(`{"title":"Tiny","url":"/tiny","widgets":[{"id":"q","type":"text","syncQS":true,"qsKey":"q"}]}`), 0o600))

	stdout, _, err := executeCommand("inspect", "page", pagePath, "--json")
	require.NoError(t, err)

	var snap page.Snapshot
	require.NoError(t, json.Unmarshal([]byte(stdout), &snap))
	assert.Equal(t, "Tiny", snap.Title)
	require.Len(t, snap.Widgets, 1)
	assert.Equal(t, "q", snap.Widgets[0].ID)
}
