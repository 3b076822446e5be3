package cli_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/get-eventually/eventcore/command"
	"github.com/get-eventually/eventcore/internal/branch"
	"github.com/get-eventually/eventcore/internal/cli"
	"github.com/get-eventually/eventcore/version"
)

const branchID = "0190f1a6-6c5e-7a8b-9c0d-1e2f3a4b5c6d"

func runJSON(t *testing.T, app *cli.App, args ...string) cli.BranchView {
	t.Helper()

	out, err := run(t, app, append([]string{"--format", "json"}, args...)...)
	require.NoError(t, err)

	var view cli.BranchView
	require.NoError(t, json.Unmarshal([]byte(out), &view))

	return view
}

func TestBranchLifecycle(t *testing.T) {
	app := newTestApp(t)
	id := uuid.MustParse(branchID)

	view := runJSON(t, app, "register", "--name", "Tokyo", "--country", "JP", "--id", branchID)
	assert.Equal(t, cli.BranchView{
		ID:               id,
		RootPartitionKey: "default",
		Name:             "Tokyo",
		Country:          "JP",
		Version:          1,
		Events:           []string{"BranchCreated"},
	}, view)

	view = runJSON(t, app, "rename", branchID, "--name", "Shibuya")
	assert.Equal(t, "Shibuya", view.Name)
	assert.Equal(t, version.Version(2), view.Version)
	assert.Equal(t, []string{"BranchNameChanged"}, view.Events)

	view = runJSON(t, app, "change-country", branchID, "--country", "KR")
	assert.Equal(t, "KR", view.Country)
	assert.Equal(t, version.Version(3), view.Version)

	// Renaming to the current name does not produce events.
	view = runJSON(t, app, "rename", branchID, "--name", "Shibuya")
	assert.Equal(t, version.Version(3), view.Version)
	assert.Empty(t, view.Events)

	view = runJSON(t, app, "show", branchID)
	assert.Equal(t, cli.BranchView{
		ID:               id,
		RootPartitionKey: "default",
		Name:             "Shibuya",
		Country:          "KR",
		Version:          3,
	}, view)

	out, err := run(t, app, "show", branchID)
	require.NoError(t, err)
	assert.Contains(t, out, "name:     Shibuya")
	assert.Contains(t, out, "version:  3")
}

func TestBranchErrors(t *testing.T) {
	app := newTestApp(t)

	t.Run("show fails on unknown branches", func(t *testing.T) {
		_, err := run(t, app, "show", branchID)
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("rename fails on unknown branches", func(t *testing.T) {
		_, err := run(t, app, "rename", branchID, "--name", "Osaka")

		var restrictionErr command.TypeRestrictionError
		assert.ErrorAs(t, err, &restrictionErr)
	})

	t.Run("register validates the name", func(t *testing.T) {
		_, err := run(t, app, "register", "--country", "JP")
		assert.ErrorIs(t, err, branch.ErrEmptyName)
	})

	t.Run("invalid ids are refused", func(t *testing.T) {
		_, err := run(t, app, "show", "not-a-uuid")
		assert.ErrorContains(t, err, "invalid branch id")
	})

	t.Run("tenants are isolated", func(t *testing.T) {
		_, err := run(t, app, "register", "--name", "Tokyo", "--country", "JP", "--id", branchID)
		require.NoError(t, err)

		_, err = run(t, app, "--root-partition", "another-tenant", "show", branchID)
		assert.ErrorContains(t, err, "not found")
	})
}
