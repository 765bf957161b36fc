package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/natefinch/atomic"
)

// UpdateGoldenEnv names the variable that rewrites golden replies instead
// of comparing them.
const UpdateGoldenEnv = "RTMBOT_UPDATE_GOLDEN"

// GoldenReply compares a bot reply with testdata/<name>.golden, line by line.
func GoldenReply(t *testing.T, name, reply string) {
	t.Helper()
	path := filepath.Join("testdata", name+".golden")

	if os.Getenv(UpdateGoldenEnv) != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("create testdata: %v", err)
		}
		if err := atomic.WriteFile(path, strings.NewReader(reply)); err != nil {
			t.Fatalf("update %s: %v", path, err)
		}
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v (set %s=1 to create it)", path, err, UpdateGoldenEnv)
	}
	if diff := cmp.Diff(strings.Split(string(want), "\n"), strings.Split(reply, "\n")); diff != "" {
		t.Errorf("reply %s mismatch (-want +got):\n%s", name, diff)
	}
}
