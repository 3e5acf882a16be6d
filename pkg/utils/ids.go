package utils

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var idSeq uint64

// GenDraftID generates a unique draft ID using the current UTC nanosecond
// timestamp and an atomic sequence number. The format is
// "draft-<timestamp>-<seq>".
func GenDraftID() string {
	n := time.Now().UTC().UnixNano()
	s := atomic.AddUint64(&idSeq, 1)
	return fmt.Sprintf("draft-%d-%d", n, s)
}

// GenSegmentID generates a unique segment ID. Segment ids end up in file
// names under the managed root, so a UUID keeps them collision-free across
// devices when drafts are exported and re-imported.
func GenSegmentID() string {
	return uuid.NewString()
}
