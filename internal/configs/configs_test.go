package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvironments(t *testing.T) {
	environments, err := ParseEnvironments("playground=harvest_tasks_playground, production=harvest_tasks")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"playground": "harvest_tasks_playground",
		"production": "harvest_tasks",
	}, environments)
}

func TestParseEnvironmentsRejectsMalformedEntries(t *testing.T) {
	for _, raw := range []string{
		"",
		"playground",
		"=harvest_tasks",
		"playground=",
	} {
		_, err := ParseEnvironments(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

func TestParseEnvironmentsRejectsUnsafeTableNames(t *testing.T) {
	_, err := ParseEnvironments("playground=harvest;drop")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsafe table name")
}

func TestResolveTable(t *testing.T) {
	environments := map[string]string{
		"playground": "harvest_tasks_playground",
		"production": "harvest_tasks",
	}

	table, err := ResolveTable(environments, "production")
	require.NoError(t, err)
	assert.Equal(t, "harvest_tasks", table)
}

func TestResolveTableUnknownListsKnownNames(t *testing.T) {
	environments := map[string]string{
		"playground": "harvest_tasks_playground",
		"production": "harvest_tasks",
	}

	_, err := ResolveTable(environments, "staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown environment "staging"`)
	assert.Contains(t, err.Error(), "playground, production")
}
