package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-filterpack/pkg/renderers/tui"
)

// scriptedDriver answers Select prompts from a queue and picks the last
// option (Done) once the queue is empty.
type scriptedDriver struct {
	selects []int
	infos   []string
}

func (d *scriptedDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	return cfg.Default, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg tui.ConfirmConfig) (bool, error) {
	return !cfg.Default, nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg tui.SelectConfig) (int, error) {
	if len(d.selects) == 0 {
		return len(cfg.Options) - 1, nil
	}
	idx := d.selects[0]
	d.selects = d.selects[1:]
	return idx, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

type abortingDriver struct{ scriptedDriver }

func (d *abortingDriver) Select(context.Context, tui.SelectConfig) (int, error) {
	return 0, tui.ErrAborted
}

func TestRunCommand_QueryOutput(t *testing.T) {
	// region is the first editable widget; its second option is South.
	driver := &scriptedDriver{selects: []int{0, 1}}
	stdout, _, err := executeRoot(context.Background(), rootWith(newRunCommand(driver)), "run", "--output", "query")
	require.NoError(t, err)

	assert.Contains(t, stdout, "/offices?")
	assert.Contains(t, stdout, "region=2")
	require.NotEmpty(t, driver.infos)
	assert.Contains(t, driver.infos[0], "Office directory")
}

func TestRunCommand_JSONOutput(t *testing.T) {
	// remote is the fourth editable widget; Confirm flips it on.
	driver := &scriptedDriver{selects: []int{3}}
	stdout, _, err := executeRoot(context.Background(), rootWith(newRunCommand(driver)), "run")
	require.NoError(t, err)

	var result struct {
		Replay []string `json:"replay"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, []string{"remote=1"}, result.Replay)
}

func TestRunCommand_Errors(t *testing.T) {
	_, _, err := executeRoot(context.Background(), rootWith(newRunCommand(&scriptedDriver{})), "run", "--output", "yaml")
	requireExitCode(t, err, 2)

	_, _, err = executeRoot(context.Background(), rootWith(newRunCommand(&abortingDriver{})), "run")
	requireExitCode(t, err, 130)
}
