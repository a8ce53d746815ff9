package program

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// addressLocks serializes work per tree address. Entries are reference
// counted and dropped once nobody holds or waits on them.
type addressLocks struct {
	mu    sync.Mutex
	locks map[common.Address]*addressLock
}

type addressLock struct {
	ch   chan struct{}
	refs int
}

func newAddressLocks() *addressLocks {
	return &addressLocks{locks: make(map[common.Address]*addressLock)}
}

// lock blocks until the address is free or ctx is done. The returned func releases the lock.
func (a *addressLocks) lock(ctx context.Context, addr common.Address) (func(), error) {
	a.mu.Lock()
	l, ok := a.locks[addr]
	if !ok {
		l = &addressLock{ch: make(chan struct{}, 1)}
		a.locks[addr] = l
	}
	l.refs++
	a.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			a.release(addr, l)
		}, nil
	case <-ctx.Done():
		a.release(addr, l)
		return nil, ctx.Err()
	}
}

func (a *addressLocks) release(addr common.Address, l *addressLock) {
	a.mu.Lock()
	defer a.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(a.locks, addr)
	}
}

func (a *addressLocks) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.locks)
}
