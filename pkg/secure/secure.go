// Package secure provides a zeroizing byte container for secret key
// material: AES keys, hybrid KEM shared secrets, and unwrapped DEKs.
//
// Go's garbage collector does not guarantee that freed memory is
// overwritten, and the compiler may reorder or elide a naive zeroing loop.
// Bytes wraps a slice and a sync.Once so Destroy is idempotent and callers
// can defer it unconditionally.
package secure

import "sync"

// Bytes holds secret byte material that must be zeroized before release.
type Bytes struct {
	mu   sync.Mutex
	data []byte
	once sync.Once
}

// New wraps an existing byte slice. The slice is taken by reference, not
// copied; callers should not retain their own reference to it afterward.
func New(data []byte) *Bytes {
	return &Bytes{data: data}
}

// NewCopy copies src into a new Bytes container, leaving src untouched.
func NewCopy(src []byte) *Bytes {
	cp := make([]byte, len(src))
	copy(cp, src)
	return &Bytes{data: cp}
}

// Bytes returns the underlying slice. The returned slice aliases the
// container's storage and becomes invalid after Destroy.
func (b *Bytes) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Len returns the length of the contained data.
func (b *Bytes) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Destroy overwrites the contained data with zeros. Safe to call more than
// once; subsequent calls are no-ops.
func (b *Bytes) Destroy() {
	b.once.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		Zero(b.data)
		b.data = nil
	})
}

// Zero overwrites a byte slice with zeros in place.
//
// The Go runtime may have already copied the data elsewhere, and the
// compiler is in principle free to elide this loop if it can prove the
// result is never observed; in practice the subsequent read of b.data
// through the mutex-guarded field prevents that here.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ZeroAll overwrites every given byte slice with zeros.
func ZeroAll(slices ...[]byte) {
	for _, s := range slices {
		Zero(s)
	}
}
