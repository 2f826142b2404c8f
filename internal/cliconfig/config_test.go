package cliconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisahap1/fusion-engine-client/messages"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadAndResolveAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p1ctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  file: /tmp/p1ctl.log
type_aliases:
  gnss: gnss_info
  events: event_notification
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/p1ctl.log", cfg.Log.File)

	types, err := cfg.ResolveTypes([]string{"gnss", "pose", "events"})
	require.NoError(t, err)
	assert.Equal(t, []messages.MessageType{
		messages.TypeGNSSInfo,
		messages.TypePose,
		messages.TypeEventNotification,
	}, types)

	_, err = cfg.ResolveTypes([]string{"unknown"})
	assert.Error(t, err)

	none, err := cfg.ResolveTypes(nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p1ctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: ["), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
