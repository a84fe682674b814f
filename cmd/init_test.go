package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wompRS/WompBot-Discord-sub002/wompbot"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestInitCommand(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	os.Setenv("WOMP_DATABASE_TYPE", "sqlite")
	os.Setenv("WOMP_DATABASE", dbPath)
	t.Cleanup(
		func() {
			os.Unsetenv("WOMP_DATABASE_TYPE")
			os.Unsetenv("WOMP_DATABASE")
		},
	)

	currentOut := rootCmd.OutOrStdout()
	currentErr := rootCmd.OutOrStderr()
	t.Cleanup(
		func() {
			rootCmd.SetOut(currentOut)
			rootCmd.SetErr(currentErr)
		},
	)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)

	rootCmd.SetArgs([]string{"init"})
	err := rootCmd.Execute()
	require.NoError(t, err)

	assert.FileExists(t, dbPath)
	assert.Contains(t, out.String(), "Initialization complete")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	require.NoError(t, err)

	var runtimeConfig wompbot.RuntimeConfig
	require.NoError(t, db.Last(&runtimeConfig).Error)
	assert.False(t, runtimeConfig.Paused)
	assert.Greater(t, runtimeConfig.UserReminderLimit, 0)
	assert.Greater(t, runtimeConfig.UserChatCommandLimit6h, 0)

	// Running init again should not create a second config row
	out.Reset()
	rootCmd.SetArgs([]string{"init"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "already exists")

	var count int64
	require.NoError(
		t,
		db.Model(&wompbot.RuntimeConfig{}).Count(&count).Error,
	)
	assert.Equal(t, int64(1), count)
}
