package helpers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"bountyboard/engine/library"
	"bountyboard/state/blocks"
)

// SignedOperation builds an operation event of kind with content as JSON, chained to previous
// (the signer's last handled event ID, or the replay prevention constant), and signs it.
func SignedOperation(w library.Wallet, kind int, previous library.Sha256, content any) (r nostr.Event, e error) {
	b, err := json.Marshal(content)
	if err != nil {
		return r, err
	}
	r = nostr.Event{
		PubKey:    w.Account,
		CreatedAt: nostr.Timestamp(time.Now().Unix()),
		Kind:      kind,
		Tags:      nostr.Tags{nostr.Tag{"r", previous}},
		Content:   string(b),
	}
	return r, sign(w, &r)
}

// SignedHeader builds and signs a block header event for a clock oracle.
func SignedHeader(w library.Wallet, height int64, hash library.Sha256, minerTime, medianTime, difficulty int64) (r nostr.Event, e error) {
	r = blocks.Header(height, hash, minerTime, medianTime, difficulty)
	r.PubKey = w.Account
	return r, sign(w, &r)
}

func sign(w library.Wallet, r *nostr.Event) error {
	r.ID = r.GetID()
	if err := r.Sign(w.PrivateKey); err != nil {
		return fmt.Errorf("could not sign event %s: %s", r.ID, err.Error())
	}
	return nil
}
