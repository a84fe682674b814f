package cmd

import (
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wompRS/WompBot-Discord-sub002/wompbot"
)

func TestVersionCommand(t *testing.T) {
	originalVersion := wompbot.Version
	originalCommitSHA := wompbot.CommitSHA
	originalBuildTime := wompbot.BuildTime

	t.Cleanup(
		func() {
			wompbot.Version = originalVersion
			wompbot.CommitSHA = originalCommitSHA
			wompbot.BuildTime = originalBuildTime
		},
	)

	wompbot.Version = "1.0.0"
	wompbot.CommitSHA = "abc123"
	wompbot.BuildTime = "2023-10-01T12:00:00Z"

	orig := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	t.Cleanup(
		func() {
			os.Stdout = orig
		},
	)

	// Capture the output
	versionCmd.Run(nil, nil)

	_ = w.Close()

	out, _ := io.ReadAll(r)
	output := string(out)
	t.Logf("output: %s", string(out))
	expected := fmt.Sprintf(
		"version=%s commit=%s built: %s",
		wompbot.Version,
		wompbot.CommitSHA,
		wompbot.BuildTime,
	)
	assert.Equal(t, expected, output)
}
