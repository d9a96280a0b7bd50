// Package link provides mutual exclusion over a single shared network link.
//
// On constrained devices the updater shares one physical uplink (a modem or
// radio) with unrelated subsystems. The Arbiter is the gate every subsystem
// takes before touching the link and gives back immediately after, so that no
// caller monopolizes the transport while another is waiting to send.
package link

// Arbiter is a binary token guarding the shared link. At most one holder
// exists system-wide at any instant. A nil *Arbiter is valid and turns
// Acquire and Release into no-ops, for deployments where the link is not
// shared.
type Arbiter struct {
	token chan struct{}
}

// New creates an Arbiter with its token available.
func New() *Arbiter {
	a := &Arbiter{token: make(chan struct{}, 1)}
	a.token <- struct{}{}
	return a
}

// Acquire blocks until the link token is available. The wait is unbounded:
// the link is a singleton resource and every holder is expected to release it
// promptly after its socket operation.
func (a *Arbiter) Acquire() {
	if a == nil {
		return
	}
	<-a.token
}

// Release returns the link token. Releasing an arbiter that is not held is a
// no-op, so error paths may release unconditionally without double-freeing
// the token.
func (a *Arbiter) Release() {
	if a == nil {
		return
	}
	select {
	case a.token <- struct{}{}:
	default:
	}
}
