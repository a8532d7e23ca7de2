package sinks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/lumicore/internal/device"
)

type recordCall struct {
	deviceID string
	document []byte
	source   string
}

type fakeHistory struct {
	mu    sync.Mutex
	calls []recordCall
	err   error
}

func (f *fakeHistory) Record(_ context.Context, deviceID string, document []byte, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, recordCall{deviceID, document, source})
	return nil
}

func (f *fakeHistory) History(context.Context, string, int) ([]device.HistoryEntry, error) {
	return nil, nil
}

func TestHistoryRecorder(t *testing.T) {
	repo := &fakeHistory{}
	rec := NewHistoryRecorder(repo, nil)
	d := device.New("spot-1", 1, "spot")
	d.SetScalar("dimmer", 0.7)

	rec.DeviceChanged(d, device.EventAdded)
	rec.DeviceChanged(d, device.EventParamsChanged)
	rec.DeviceChanged(d, device.EventMetadataChanged)
	rec.DeviceChanged(d, device.EventRemoved)
	rec.Snapshot(d, device.HistorySourceImport)

	want := []string{device.HistorySourceParams, device.HistorySourceMetadata, device.HistorySourceImport}
	if len(repo.calls) != len(want) {
		t.Fatalf("records = %d, want %d", len(repo.calls), len(want))
	}
	for i, src := range want {
		if repo.calls[i].source != src || repo.calls[i].deviceID != "spot-1" {
			t.Errorf("record %d = %s/%s, want spot-1/%s", i, repo.calls[i].deviceID, repo.calls[i].source, src)
		}
	}

	restored, err := device.NewFromJSON("spot-1", repo.calls[0].document, nil)
	if err != nil {
		t.Fatalf("snapshot does not decode: %v", err)
	}
	if v, _ := restored.GetScalar("dimmer"); v != 0.7 {
		t.Errorf("snapshot dimmer = %v, want 0.7", v)
	}
}

func TestHistoryRecorder_LogsFailure(t *testing.T) {
	logger := &countingLogger{}
	rec := NewHistoryRecorder(&fakeHistory{err: errors.New("locked")}, logger)

	rec.DeviceChanged(device.New("spot-1", 1, "spot"), device.EventParamsChanged)

	if logger.errors != 1 {
		t.Errorf("errors logged = %d, want 1", logger.errors)
	}
}

type fakePruner struct {
	mu    sync.Mutex
	calls int
	ages  []time.Duration
	err   error
}

func (f *fakePruner) Prune(_ context.Context, olderThan time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.ages = append(f.ages, olderThan)
	return 3, f.err
}

func (f *fakePruner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunPruner(t *testing.T) {
	p := &fakePruner{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunPruner(ctx, p, 48*time.Hour, 10*time.Millisecond, nil)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for p.count() < 2 {
		select {
		case <-deadline:
			t.Fatal("pruner did not tick")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ages[0] != 48*time.Hour {
		t.Errorf("retention = %v, want 48h", p.ages[0])
	}
}

func TestRunPruner_LogsFailure(t *testing.T) {
	logger := &countingLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	RunPruner(ctx, &fakePruner{err: errors.New("busy")}, time.Hour, time.Hour, logger)

	if logger.warns != 1 {
		t.Errorf("warnings = %d, want 1", logger.warns)
	}
}
