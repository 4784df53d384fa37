package core

import (
	"bytes"
	"context"
	"replicate/logger"
	"replicate/models"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeRewriteHelper(t *testing.T) {
	logger.InitDiscard()
	rw := NewRewriter(NewMemorySettingsStore(models.ReplicateSettings{
		SyncBaseURL:    "https://relay.example",
		PublishBaseURL: "https://pub.example",
	}), models.FieldModeSplit)

	in := strings.Join([]string{
		"https://api.obsidian.md/v1/ping 10.0.0.1/- - GET",
		"0 https://publish.obsidian.md/site 10.0.0.1/- - GET",
		"7 https://example.com/ 10.0.0.1/- - GET",
		"",
		"https://example.com/",
	}, "\n") + "\n"

	var out bytes.Buffer
	require.NoError(t, ServeRewriteHelper(context.Background(), rw, strings.NewReader(in), &out))

	assert.Equal(t, strings.Join([]string{
		`OK rewrite-url="https://relay.example/v1/ping"`,
		`0 OK rewrite-url="https://pub.example/site"`,
		`7 OK`,
		`ERR`,
		`OK`,
	}, "\n")+"\n", out.String())
}

func TestServeRewriteHelperCancelled(t *testing.T) {
	rw := NewRewriter(NewMemorySettingsStore(models.DefaultSettings()), models.FieldModeShared)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := ServeRewriteHelper(ctx, rw, strings.NewReader("https://api.obsidian.md/\n"), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
