package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaz8081/placar/internal/ble"
)

func TestPickDevice(t *testing.T) {
	one := []ble.Peripheral{{ID: "AA"}}
	two := []ble.Peripheral{{ID: "AA"}, {ID: "BB"}}

	p, err := pickDevice(one, "")
	require.NoError(t, err)
	assert.Equal(t, "AA", p.ID)

	p, err = pickDevice(two, "BB")
	require.NoError(t, err)
	assert.Equal(t, "BB", p.ID)

	_, err = pickDevice(two, "")
	assert.ErrorContains(t, err, "--device")

	_, err = pickDevice(two, "CC")
	assert.ErrorIs(t, err, ble.ErrUnknownDevice)

	_, err = pickDevice(nil, "")
	assert.Error(t, err)
}

func TestRootHasSubcommands(t *testing.T) {
	root := rootCmd()
	for _, name := range []string{"scan", "control", "send", "login", "logout", "games", "init"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestActionNamesListsEveryAction(t *testing.T) {
	names := actionNames()
	assert.Contains(t, names, "a-point-up")
	assert.Contains(t, names, "preset-30")
}

func TestCredentialsPromptsForMissingValues(t *testing.T) {
	t.Setenv("PLACAR_PASSWORD", "")
	var asked []string
	askString = func(title string) (string, error) {
		asked = append(asked, "string:"+title)
		return " ana@example.com ", nil
	}
	askPassword = func(title string) (string, error) {
		asked = append(asked, "password:"+title)
		return "s3cret", nil
	}
	t.Cleanup(func() { askString, askPassword = promptString, promptPassword })

	email, password, err := credentials("")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", email)
	assert.Equal(t, "s3cret", password)
	assert.Equal(t, []string{"string:Email", "password:Password"}, asked)
}

func TestCredentialsFromFlagAndEnv(t *testing.T) {
	t.Setenv("PLACAR_PASSWORD", "from-env")
	askString = func(string) (string, error) { t.Fatal("email prompt shown"); return "", nil }
	askPassword = func(string) (string, error) { t.Fatal("password prompt shown"); return "", nil }
	t.Cleanup(func() { askString, askPassword = promptString, promptPassword })

	email, password, err := credentials("ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", email)
	assert.Equal(t, "from-env", password)
}

func TestCredentialsRequireBoth(t *testing.T) {
	t.Setenv("PLACAR_PASSWORD", "")
	askPassword = func(string) (string, error) { return "", nil }
	t.Cleanup(func() { askPassword = promptPassword })

	_, _, err := credentials("ana@example.com")
	assert.Error(t, err)
}
