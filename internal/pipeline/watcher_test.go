package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForDocuments(t *testing.T, f *fixture, want int) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for f.documents.Len() < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d documents, have %d", want, f.documents.Len())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWatchProcessesInitialScan(t *testing.T) {
	f := newFixture(t)
	f.drop(t, "rechnung.pdf", vehicleLetter)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- f.processor.Watch(ctx, f.broker.ID, WatchConfig{Root: f.inbox, InitialScan: true})
	}()

	waitForDocuments(t, f, 1)
	cancel()

	err := <-done
	assert.True(t, errors.Is(err, context.Canceled) || err == nil)
}

func TestWatchPicksUpNewFiles(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- f.processor.Watch(ctx, f.broker.ID, WatchConfig{
			Root:     f.inbox,
			Debounce: 50 * time.Millisecond,
		})
	}()

	// Give the watcher a moment to register the root.
	time.Sleep(200 * time.Millisecond)
	f.drop(t, "neu.pdf", vehicleLetter)

	waitForDocuments(t, f, 1)
	cancel()
	<-done
}

func TestWatchHandlesEventBursts(t *testing.T) {
	f := newFixture(t)

	// Register all texts up front; the watch goroutine reads the stub map.
	const n = 40
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("scan_%03d.pdf", i)
		f.extractor.texts[names[i]] = vehicleLetter
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- f.processor.Watch(ctx, f.broker.ID, WatchConfig{
			Root:     f.inbox,
			Debounce: time.Millisecond,
		})
	}()

	// Give the watcher a moment to register the root, then drop files
	// faster than the debounce window settles.
	time.Sleep(200 * time.Millisecond)
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(f.inbox, name), []byte("%PDF-1.4 stub"), 0o644))
		time.Sleep(time.Millisecond)
	}

	waitForDocuments(t, f, n)
	cancel()
	<-done
}

func TestWatchRequiresRoot(t *testing.T) {
	f := newFixture(t)
	err := f.processor.Watch(context.Background(), f.broker.ID, WatchConfig{})
	assert.Error(t, err)
}
