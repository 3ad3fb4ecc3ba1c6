package metrics

import (
	"sync"
	"testing"
)

func TestCollector_IncrementMethods(t *testing.T) {
	c := NewCollector("s3", "fail", "webhook")

	c.IncSubmissionStarted()
	c.IncSubmissionStarted()
	c.IncSubmissionRejected()
	c.IncTransferSucceeded()
	c.IncTransferFailed()
	c.AddBytesUploaded(1024)
	c.AddBytesUploaded(512)
	c.IncPollStarted()
	c.IncPollTick()
	c.IncPollTick()
	c.IncPollTick()
	c.IncEmptyTick()
	c.IncNotFoundTick()
	c.IncFetchError()
	c.IncDecodeError()
	c.IncResultReady()
	c.IncPollCanceled()
	c.IncNotificationSent()
	c.IncNotificationFailed()
	c.IncNotificationFailed()

	s := c.Snapshot()

	tests := []struct {
		name string
		got  int64
		want int64
	}{
		{"SubmissionsStarted", s.SubmissionsStarted, 2},
		{"SubmissionsRejected", s.SubmissionsRejected, 1},
		{"TransfersSucceeded", s.TransfersSucceeded, 1},
		{"TransfersFailed", s.TransfersFailed, 1},
		{"BytesUploaded", s.BytesUploaded, 1536},
		{"PollsStarted", s.PollsStarted, 1},
		{"PollTicks", s.PollTicks, 3},
		{"EmptyTicks", s.EmptyTicks, 1},
		{"NotFoundTicks", s.NotFoundTicks, 1},
		{"FetchErrors", s.FetchErrors, 1},
		{"DecodeErrors", s.DecodeErrors, 1},
		{"ResultsReady", s.ResultsReady, 1},
		{"PollsCanceled", s.PollsCanceled, 1},
		{"NotificationsSent", s.NotificationsSent, 1},
		{"NotificationsFailed", s.NotificationsFailed, 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestCollector_Dimensions(t *testing.T) {
	c := NewCollector("minio", "retry", "redis")
	s := c.Snapshot()

	if s.StorageBackend != "minio" {
		t.Errorf("StorageBackend = %q, want %q", s.StorageBackend, "minio")
	}
	if s.NotFoundPolicy != "retry" {
		t.Errorf("NotFoundPolicy = %q, want %q", s.NotFoundPolicy, "retry")
	}
	if s.Adapter != "redis" {
		t.Errorf("Adapter = %q, want %q", s.Adapter, "redis")
	}
}

func TestCollector_AddBytesUploadedIgnoresNonPositive(t *testing.T) {
	c := NewCollector("fs", "fail", "")
	c.AddBytesUploaded(0)
	c.AddBytesUploaded(-5)
	if got := c.Snapshot().BytesUploaded; got != 0 {
		t.Errorf("BytesUploaded = %d, want 0", got)
	}
}

func TestCollector_SnapshotImmutability(t *testing.T) {
	c := NewCollector("fs", "fail", "")
	c.IncSubmissionStarted()
	c.IncPollTick()

	s1 := c.Snapshot()

	c.IncResultReady()
	c.IncPollTick()
	c.IncPollTick()

	if s1.ResultsReady != 0 {
		t.Errorf("s1.ResultsReady = %d, want 0 (snapshot should be frozen)", s1.ResultsReady)
	}
	if s1.PollTicks != 1 {
		t.Errorf("s1.PollTicks = %d, want 1 (snapshot should be frozen)", s1.PollTicks)
	}

	s2 := c.Snapshot()
	if s2.ResultsReady != 1 {
		t.Errorf("s2.ResultsReady = %d, want 1", s2.ResultsReady)
	}
	if s2.PollTicks != 3 {
		t.Errorf("s2.PollTicks = %d, want 3", s2.PollTicks)
	}
}

func TestCollector_NilReceiverSafety(t *testing.T) {
	var c *Collector

	// None of these should panic
	c.IncSubmissionStarted()
	c.IncSubmissionRejected()
	c.IncTransferSucceeded()
	c.IncTransferFailed()
	c.AddBytesUploaded(10)
	c.IncPollStarted()
	c.IncPollTick()
	c.IncEmptyTick()
	c.IncNotFoundTick()
	c.IncFetchError()
	c.IncDecodeError()
	c.IncResultReady()
	c.IncPollCanceled()
	c.IncNotificationSent()
	c.IncNotificationFailed()

	if s := c.Snapshot(); s != (Snapshot{}) {
		t.Errorf("nil collector snapshot = %+v, want zero", s)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	c := NewCollector("memory", "fail", "")
	const goroutines = 10
	const iterations = 1000

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				c.IncPollTick()
				c.IncEmptyTick()
				c.AddBytesUploaded(2)
			}
		}()
	}

	wg.Wait()

	s := c.Snapshot()
	want := int64(goroutines * iterations)

	if s.PollTicks != want {
		t.Errorf("PollTicks = %d, want %d", s.PollTicks, want)
	}
	if s.EmptyTicks != want {
		t.Errorf("EmptyTicks = %d, want %d", s.EmptyTicks, want)
	}
	if s.BytesUploaded != 2*want {
		t.Errorf("BytesUploaded = %d, want %d", s.BytesUploaded, 2*want)
	}
}
