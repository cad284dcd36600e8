package audit

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// SignedTrail is a Recorder that signs every entry with an Ed25519 key,
// making the trail tamper-evident for compliance review.
type SignedTrail struct {
	mu         sync.Mutex
	trailID    string
	publicKey  ed25519.PublicKey
	privateKey ed25519.PrivateKey
	records    []*SignedRecord
}

// SignedRecord is one signed audit decision.
type SignedRecord struct {
	TrailID   string    `json:"trail_id"`
	TaskID    string    `json:"task_id"`
	ContextID string    `json:"context_id,omitempty"`
	AgentRole string    `json:"agent_role"`
	Action    string    `json:"action"`
	TenantID  string    `json:"tenant_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Signature string    `json:"signature,omitempty"`
}

// NewSignedTrail creates a signed trail with a fresh Ed25519 keypair.
func NewSignedTrail(trailID string) (*SignedTrail, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}

	return &SignedTrail{
		trailID:    trailID,
		publicKey:  pub,
		privateKey: priv,
	}, nil
}

// PublicKey returns the base64-encoded public key for verification.
func (t *SignedTrail) PublicKey() string {
	return base64.StdEncoding.EncodeToString(t.publicKey)
}

// Record implements Recorder.
func (t *SignedTrail) Record(ctx context.Context, entry Entry) {
	record := &SignedRecord{
		TrailID:   t.trailID,
		TaskID:    entry.TaskID,
		ContextID: entry.ContextID,
		AgentRole: entry.AgentRole,
		Action:    entry.Action,
		TenantID:  entry.TenantID,
		UserID:    entry.UserID,
		Timestamp: entry.Timestamp,
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	record.Signature = t.sign(record)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, record)
}

// Records returns a copy of the signed records.
func (t *SignedTrail) Records() []*SignedRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*SignedRecord, len(t.records))
	copy(out, t.records)
	return out
}

// sign creates an Ed25519 signature over the canonical record bytes.
func (t *SignedTrail) sign(record *SignedRecord) string {
	hash := sha256.Sum256(canonicalJSON(record))
	sig := ed25519.Sign(t.privateKey, hash[:])
	return base64.StdEncoding.EncodeToString(sig)
}

// canonicalJSON creates a deterministic JSON representation of a record,
// excluding the signature field. Fields are sorted, no extra whitespace.
func canonicalJSON(record *SignedRecord) []byte {
	m := map[string]interface{}{
		"trail_id":   record.TrailID,
		"task_id":    record.TaskID,
		"context_id": record.ContextID,
		"agent_role": record.AgentRole,
		"action":     record.Action,
		"tenant_id":  record.TenantID,
		"user_id":    record.UserID,
		"timestamp":  record.Timestamp.Format(time.RFC3339Nano),
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := "{"
	for i, k := range keys {
		if i > 0 {
			result += ","
		}
		v, _ := json.Marshal(m[k])
		result += fmt.Sprintf(`"%s":%s`, k, string(v))
	}
	result += "}"

	return []byte(result)
}

// VerifyRecord verifies a signed record against a base64 public key.
func VerifyRecord(record *SignedRecord, publicKeyBase64 string) (bool, error) {
	pubKeyBytes, err := base64.StdEncoding.DecodeString(publicKeyBase64)
	if err != nil {
		return false, fmt.Errorf("invalid public key: %w", err)
	}
	if len(pubKeyBytes) != ed25519.PublicKeySize {
		return false, fmt.Errorf("invalid public key size: %d", len(pubKeyBytes))
	}

	sig, err := base64.StdEncoding.DecodeString(record.Signature)
	if err != nil {
		return false, fmt.Errorf("invalid signature encoding: %w", err)
	}

	hash := sha256.Sum256(canonicalJSON(record))
	return ed25519.Verify(ed25519.PublicKey(pubKeyBytes), hash[:], sig), nil
}
