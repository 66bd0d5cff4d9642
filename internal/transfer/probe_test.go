package transfer

import (
	"context"
	"testing"
)

func TestSSHSizer_RemoteSize(t *testing.T) {
	t.Run("converts kilobytes to bytes", func(t *testing.T) {
		sizer := NewSSHSizer(argsRemote)
		sizer.Binary = stubBinary(t, `echo "488204	/srv/data"`)

		size, err := sizer.RemoteSize(context.Background(), "/srv/data/")
		if err != nil {
			t.Fatalf("RemoteSize() error = %v", err)
		}
		if want := int64(488204) * 1024; size != want {
			t.Errorf("RemoteSize() = %d, want %d", size, want)
		}
	})

	t.Run("non-zero exit is an error", func(t *testing.T) {
		sizer := NewSSHSizer(argsRemote)
		sizer.Binary = stubBinary(t, "exit 255")

		if _, err := sizer.RemoteSize(context.Background(), "/srv/data/"); err == nil {
			t.Error("expected error for failed probe")
		}
	})

	t.Run("non-numeric output is an error", func(t *testing.T) {
		sizer := NewSSHSizer(argsRemote)
		sizer.Binary = stubBinary(t, `echo "permission denied"`)

		if _, err := sizer.RemoteSize(context.Background(), "/srv/data/"); err == nil {
			t.Error("expected error for unparseable output")
		}
	})
}
