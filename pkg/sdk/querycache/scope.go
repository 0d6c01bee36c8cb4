package querycache

import (
	"sync"

	"github.com/clinicdesk/clinic/pkg/sdk/session"
)

// SessionSource is a session that can be observed. *session.Manager
// satisfies it.
type SessionSource interface {
	Snapshot() session.Snapshot
	Subscribe(func(session.Snapshot)) (cancel func())
}

var _ SessionSource = (*session.Manager)(nil)

// Follow scopes the cache to the signed-in identity: it is purged whenever
// the identity changes, including sign-out. Snapshots taken while the
// session is loading are ignored.
func (c *Cache) Follow(src SessionSource) (cancel func()) {
	var mu sync.Mutex
	owner := ownerOf(src.Snapshot())
	return src.Subscribe(func(snap session.Snapshot) {
		if snap.Loading {
			return
		}
		next := ownerOf(snap)
		mu.Lock()
		changed := next != owner
		owner = next
		mu.Unlock()
		if changed {
			c.logger.Debug().Int64("user_id", next).Msg("identity changed, purging cache")
			c.Purge()
		}
	})
}

func ownerOf(snap session.Snapshot) int64 {
	if !snap.HasIdentity() {
		return 0
	}
	return snap.Identity.ID
}
