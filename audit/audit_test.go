package audit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRecorder_RecordsAndFilters(t *testing.T) {
	r := NewMemoryRecorder()
	ctx := context.Background()

	r.Record(ctx, Entry{TaskID: "t1", AgentRole: "business_discovery", Action: ActionExecutionStarted})
	r.Record(ctx, Entry{TaskID: "t1", AgentRole: "business_discovery", Action: ActionExecutionCompleted, Duration: 2 * time.Second})
	r.Record(ctx, Entry{TaskID: "t2", AgentRole: "profile_collection", Action: ActionAccessDenied})

	if len(r.Entries()) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(r.Entries()))
	}

	denied := r.ByAction(ActionAccessDenied)
	if len(denied) != 1 || denied[0].AgentRole != "profile_collection" {
		t.Errorf("unexpected filtered entries: %+v", denied)
	}

	// Timestamp is filled in when absent.
	if r.Entries()[0].Timestamp.IsZero() {
		t.Error("recorder should stamp entries")
	}
}

func TestSignedTrail_SignAndVerify(t *testing.T) {
	trail, err := NewSignedTrail("trail-1")
	if err != nil {
		t.Fatalf("NewSignedTrail failed: %v", err)
	}

	trail.Record(context.Background(), Entry{
		TaskID:    "t1",
		ContextID: "ctx-1",
		AgentRole: "business_discovery",
		Action:    ActionExecutionStarted,
		TenantID:  "tenant-a",
	})

	records := trail.Records()
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	ok, err := VerifyRecord(records[0], trail.PublicKey())
	if err != nil {
		t.Fatalf("VerifyRecord failed: %v", err)
	}
	if !ok {
		t.Error("freshly signed record should verify")
	}
}

func TestSignedTrail_TamperDetection(t *testing.T) {
	trail, _ := NewSignedTrail("trail-1")
	trail.Record(context.Background(), Entry{
		TaskID:    "t1",
		AgentRole: "business_discovery",
		Action:    ActionExecutionCompleted,
	})

	record := trail.Records()[0]
	record.TenantID = "tenant-b" // tamper

	ok, err := VerifyRecord(record, trail.PublicKey())
	if err != nil {
		t.Fatalf("VerifyRecord failed: %v", err)
	}
	if ok {
		t.Error("tampered record must fail verification")
	}
}

func TestVerifyRecord_BadKey(t *testing.T) {
	trail, _ := NewSignedTrail("trail-1")
	trail.Record(context.Background(), Entry{TaskID: "t1", AgentRole: "r", Action: ActionExecutionStarted})

	if _, err := VerifyRecord(trail.Records()[0], "not-base64!!"); err == nil {
		t.Error("malformed public key should error")
	}
	if _, err := VerifyRecord(trail.Records()[0], "QUJD"); err == nil {
		t.Error("wrong-size public key should error")
	}
}
