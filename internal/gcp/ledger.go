package gcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/Lllllllleong/pagedreading/internal/models"
)

// Ledger mirrors segmentation progress into Firestore for inspection. It is
// advisory; the resume marker in storage remains authoritative.
type Ledger struct {
	client     *firestore.Client
	collection string
}

func NewLedger(client *firestore.Client, collection string) *Ledger {
	return &Ledger{client: client, collection: collection}
}

// LedgerID is the Firestore document ID for a (user, document) pair.
func LedgerID(userID, documentID string) string {
	sum := sha256.Sum256([]byte(userID + "/" + documentID))
	return hex.EncodeToString(sum[:])
}

// Record merges rec into the pair's ledger document.
func (l *Ledger) Record(ctx context.Context, rec models.ReadingDocument) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	docRef := l.client.Collection(l.collection).Doc(LedgerID(rec.UserID, rec.DocumentID))
	if _, err := docRef.Set(ctx, rec.Fields(), firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to record status %s for %s/%s: %w", rec.Status, rec.UserID, rec.DocumentID, err)
	}
	return nil
}
