package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testEvent() Event {
	return Event{
		Time:     time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
		Product:  "Gadget",
		Url:      "https://shop.example.com/gadget",
		Previous: "OUT_OF_STOCK",
		Current:  "IN_STOCK",
	}
}

func TestNotifyAppendsLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "alerts.log")
	notifier := NewNotifier(NotificationConfig{
		Enabled: true,
		LogFile: logPath,
	})

	notifier.Notify(context.Background(), testEvent())
	notifier.Notify(context.Background(), testEvent())

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(
		t,
		"2026-03-14 15:09:26\tGadget\tOUT_OF_STOCK -> IN_STOCK\thttps://shop.example.com/gadget",
		lines[0],
	)
}

func TestNotifyDisabledSkipsChannels(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "alerts.log")
	notifier := NewNotifier(NotificationConfig{
		Enabled: false,
		LogFile: logPath,
	})

	notifier.Notify(context.Background(), testEvent())

	_, err := os.Stat(logPath)
	require.True(t, os.IsNotExist(err))
}

func TestNotifyLogFailureIsNonFatal(t *testing.T) {
	notifier := NewNotifier(NotificationConfig{
		Enabled: true,
		LogFile: filepath.Join(t.TempDir(), "no", "such", "dir", "alerts.log"),
	})

	// must warn and carry on
	notifier.Notify(context.Background(), testEvent())
}

func TestTruncate(t *testing.T) {
	testCases := []struct {
		in       string
		limit    int
		expected string
	}{
		{"Gadget", 40, "Gadget"},
		{"Gadget", 6, "Gadget"},
		{"Gadget Pro Max Ultra", 10, "Gadget Pro..."},
		{"Müsliriegel", 2, "Mü..."},
		{"Müsliriegel Größe XL", 11, "Müsliriegel..."},
		{"", 5, ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, truncate(test.in, test.limit))
	}
}
