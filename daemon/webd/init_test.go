package webd

import (
	"context"
	"testing"

	"github.com/rotblauer/bustrack/params"
)

// newTestWebDaemon creates a new WebDaemon on a temporary data dir.
// The config may be adjusted by the caller before it is used.
func newTestWebDaemon(t *testing.T, configure func(config *params.WebDaemonConfig)) *WebDaemon {
	t.Helper()
	config := params.DefaultTestWebDaemonConfig()
	config.DataDir = t.TempDir()
	if configure != nil {
		configure(config)
	}
	d, err := NewWebDaemon(context.Background(), config)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Error(err)
		}
	})
	return d
}
