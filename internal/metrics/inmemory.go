package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered uint64
	LoginSuccesses  uint64
	LoginFailures   uint64
	SessionsExpired uint64
	PostsCreated    uint64
	PostsUpdated    uint64
	PostsDeleted    uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	usersRegistered uint64
	loginSuccesses  uint64
	loginFailures   uint64
	sessionsExpired uint64
	postsCreated    uint64
	postsUpdated    uint64
	postsDeleted    uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered: atomic.LoadUint64(&m.usersRegistered),
		LoginSuccesses:  atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:   atomic.LoadUint64(&m.loginFailures),
		SessionsExpired: atomic.LoadUint64(&m.sessionsExpired),
		PostsCreated:    atomic.LoadUint64(&m.postsCreated),
		PostsUpdated:    atomic.LoadUint64(&m.postsUpdated),
		PostsDeleted:    atomic.LoadUint64(&m.postsDeleted),
	}
}

func (m *InMemoryRecorder) IncUserRegistered() { atomic.AddUint64(&m.usersRegistered, 1) }
func (m *InMemoryRecorder) IncLoginSuccess()   { atomic.AddUint64(&m.loginSuccesses, 1) }
func (m *InMemoryRecorder) IncLoginFailure()   { atomic.AddUint64(&m.loginFailures, 1) }
func (m *InMemoryRecorder) IncSessionExpired() { atomic.AddUint64(&m.sessionsExpired, 1) }
func (m *InMemoryRecorder) IncPostCreated()    { atomic.AddUint64(&m.postsCreated, 1) }
func (m *InMemoryRecorder) IncPostUpdated()    { atomic.AddUint64(&m.postsUpdated, 1) }
func (m *InMemoryRecorder) IncPostDeleted()    { atomic.AddUint64(&m.postsDeleted, 1) }
