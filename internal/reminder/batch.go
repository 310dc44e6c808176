package reminder

import "github.com/rs/xid"

// Batch is the outcome of one dispatch pass. Recipients and Bodies are
// parallel slices in scheduled-time order; a recipient appears once per
// post, so a user with two due posts is listed twice.
type Batch struct {
	RunID      xid.ID
	Recipients []string
	Bodies     []string
	// DueCount is every post the selector returned, including the ones
	// skipped for an unknown owner.
	DueCount int
}

func newBatch() *Batch {
	return &Batch{RunID: xid.New()}
}

func (b *Batch) add(recipient, body string) {
	b.Recipients = append(b.Recipients, recipient)
	b.Bodies = append(b.Bodies, body)
}

// Empty reports whether nothing was prepared for delivery.
func (b *Batch) Empty() bool {
	return len(b.Recipients) == 0
}

// Len is the number of prepared notifications.
func (b *Batch) Len() int {
	return len(b.Recipients)
}
