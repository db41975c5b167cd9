package correlator

import (
	"errors"
	"testing"
	"time"

	"github.com/arjunrv/rti-go/codec"
)

func TestInsertRejectsDuplicateID(t *testing.T) {
	table := New()
	entry, _ := NewSingle()

	if err := table.Insert("1", entry); err != nil {
		t.Fatalf("first insert: unexpected error: %v", err)
	}

	err := table.Insert("1", entry)
	if err == nil {
		t.Fatal("second insert with same id: expected error, got nil")
	}
	var dup *DuplicateIDError
	if !errors.As(err, &dup) {
		t.Fatalf("expected *DuplicateIDError, got %T", err)
	}
	if dup.ID != "1" {
		t.Errorf("dup.ID = %q, want %q", dup.ID, "1")
	}
}

func TestCompleteSingleDeliversAndRemoves(t *testing.T) {
	table := New()
	entry, ch := NewSingle()
	if err := table.Insert("7", entry); err != nil {
		t.Fatal(err)
	}

	msg := codec.TypedMessage{"rp_code": "0", "fcm_id": "TestFCM"}
	if ok := table.CompleteSingle("7", msg, nil); !ok {
		t.Fatal("CompleteSingle returned false for a pending entry")
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			t.Fatalf("unexpected error on result: %v", res.Err)
		}
		if res.Message["fcm_id"] != "TestFCM" {
			t.Errorf("fcm_id = %v, want TestFCM", res.Message["fcm_id"])
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for single result")
	}

	if table.Len() != 0 {
		t.Errorf("table.Len() = %d, want 0 after completion", table.Len())
	}

	// A second completion for the same id (simulating a frame arriving
	// after the entry was already resolved) reports ok=false.
	if ok := table.CompleteSingle("7", msg, nil); ok {
		t.Error("CompleteSingle on an already-removed id returned true")
	}
}

func TestPushStreamThenEndStream(t *testing.T) {
	table := New()
	entry, sink := NewStream()
	if err := table.Insert("9", entry); err != nil {
		t.Fatal(err)
	}

	if ok := table.PushStream("9", codec.TypedMessage{"product_code": "ES"}); !ok {
		t.Fatal("PushStream returned false for a pending stream entry")
	}
	if ok := table.PushStream("9", codec.TypedMessage{"product_code": "NQ"}); !ok {
		t.Fatal("PushStream returned false for a pending stream entry")
	}
	if ok := table.EndStream("9", nil); !ok {
		t.Fatal("EndStream returned false for a pending stream entry")
	}

	var got []string
	for msg := range sink.Data {
		got = append(got, msg["product_code"].(string))
	}
	if len(got) != 2 || got[0] != "ES" || got[1] != "NQ" {
		t.Errorf("stream data = %v, want [ES NQ]", got)
	}

	select {
	case err := <-sink.Err:
		t.Errorf("clean end-of-stream delivered an error: %v", err)
	default:
	}

	if table.Len() != 0 {
		t.Errorf("table.Len() = %d, want 0 after EndStream", table.Len())
	}
}

func TestEndStreamWithErrorSignalsBeforeClosing(t *testing.T) {
	table := New()
	entry, sink := NewStream()
	if err := table.Insert("3", entry); err != nil {
		t.Fatal(err)
	}

	wantErr := errors.New("boom")
	if ok := table.EndStream("3", wantErr); !ok {
		t.Fatal("EndStream returned false")
	}

	select {
	case err := <-sink.Err:
		if err != wantErr {
			t.Errorf("sink.Err = %v, want %v", err, wantErr)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream error")
	}

	if _, ok := <-sink.Data; ok {
		t.Error("sink.Data delivered a value after an error end")
	}
}

func TestCancelRemovesWithoutCompleting(t *testing.T) {
	table := New()
	entry, ch := NewSingle()
	if err := table.Insert("4", entry); err != nil {
		t.Fatal(err)
	}

	table.Cancel("4")

	if table.Len() != 0 {
		t.Errorf("table.Len() = %d, want 0 after Cancel", table.Len())
	}
	// A late-arriving response for a cancelled id finds nothing pending.
	if ok := table.CompleteSingle("4", codec.TypedMessage{}, nil); ok {
		t.Error("CompleteSingle succeeded against a cancelled id")
	}
	select {
	case <-ch:
		t.Error("cancelled single entry's channel was fulfilled")
	default:
	}
}

func TestFailAllDrainsSingleAndStream(t *testing.T) {
	table := New()

	singleEntry, singleCh := NewSingle()
	if err := table.Insert("s1", singleEntry); err != nil {
		t.Fatal(err)
	}
	streamEntry, sink := NewStream()
	if err := table.Insert("st1", streamEntry); err != nil {
		t.Fatal(err)
	}

	wantErr := errors.New("connection closed")
	table.FailAll(wantErr)

	select {
	case res := <-singleCh:
		if res.Err != wantErr {
			t.Errorf("single result err = %v, want %v", res.Err, wantErr)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for single failure")
	}

	select {
	case err := <-sink.Err:
		if err != wantErr {
			t.Errorf("stream err = %v, want %v", err, wantErr)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream failure")
	}

	if table.Len() != 0 {
		t.Errorf("table.Len() = %d, want 0 after FailAll", table.Len())
	}
}
