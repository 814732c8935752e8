package value

import (
	"bytes"
	"cmp"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
)

// HashAlgorithm is the digest that identifies binary content.
const HashAlgorithm = "SHA-1"

// EmptyHash is returned when the digest cannot be computed.
var EmptyHash = []byte{}

var (
	hashMu         sync.RWMutex
	hashAlgorithms = map[string]func() hash.Hash{
		"SHA-1":   sha1.New,
		"SHA-256": sha256.New,
	}
	missingAlgorithms sync.Map
)

// RegisterHashAlgorithm makes a digest available by name. A nil constructor
// removes it.
func RegisterHashAlgorithm(name string, newHash func() hash.Hash) {
	hashMu.Lock()
	defer hashMu.Unlock()
	if newHash == nil {
		delete(hashAlgorithms, name)
		return
	}
	hashAlgorithms[name] = newHash
}

// digest hashes r with the named algorithm. A missing algorithm is logged
// once and yields EmptyHash.
func digest(algorithm string, r io.Reader) ([]byte, error) {
	hashMu.RLock()
	newHash, ok := hashAlgorithms[algorithm]
	hashMu.RUnlock()
	if !ok {
		if _, seen := missingAlgorithms.LoadOrStore(algorithm, struct{}{}); !seen {
			slog.Error("hash algorithm unavailable, using empty hash", "algorithm", algorithm)
		}
		return EmptyHash, nil
	}
	h := newHash()
	if _, err := io.Copy(h, r); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// Binary is an immutable byte sequence identified by its content.
type Binary interface {
	Size() int64
	Bytes() ([]byte, error)
	// Reader returns a fresh reader over the whole content.
	Reader() (io.ReadCloser, error)
	// Hash returns the SHA-1 digest, computed at most once.
	Hash() []byte
	// Acquire and Release bracket a series of reads; implementations backed by
	// external resources keep them open in between.
	Acquire() error
	Release() error
	String() string
}

// EqualBinaries compares sizes first and then the full content.
func EqualBinaries(a, b Binary) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Size() != b.Size() {
		return false
	}
	ab, errA := a.Bytes()
	bb, errB := b.Bytes()
	return errA == nil && errB == nil && bytes.Equal(ab, bb)
}

// CompareBinaries orders by content, unreadable content sorting by size.
func CompareBinaries(a, b Binary) int {
	ab, errA := a.Bytes()
	bb, errB := b.Bytes()
	if errA != nil || errB != nil {
		return cmp.Compare(a.Size(), b.Size())
	}
	return bytes.Compare(ab, bb)
}

// HexHash renders the digest of b.
func HexHash(b Binary) string {
	return hex.EncodeToString(b.Hash())
}

func describeBinary(size int64, h []byte) string {
	if len(h) > 4 {
		h = h[:4]
	}
	return fmt.Sprintf("binary(%s, %x)", humanize.IBytes(uint64(size)), h)
}

// InMemoryBinary holds its content in memory.
type InMemoryBinary struct {
	data []byte
	hash atomic.Pointer[[]byte]
}

// NewInMemoryBinary takes ownership of data.
func NewInMemoryBinary(data []byte) *InMemoryBinary {
	if data == nil {
		data = []byte{}
	}
	return &InMemoryBinary{data: data}
}

func (b *InMemoryBinary) Size() int64 { return int64(len(b.data)) }

// Bytes returns the content itself; callers must not modify it.
func (b *InMemoryBinary) Bytes() ([]byte, error) { return b.data, nil }

func (b *InMemoryBinary) Reader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (b *InMemoryBinary) Hash() []byte {
	if h := b.hash.Load(); h != nil {
		return *h
	}
	sum, _ := digest(HashAlgorithm, bytes.NewReader(b.data))
	b.hash.CompareAndSwap(nil, &sum)
	return *b.hash.Load()
}

func (b *InMemoryBinary) Acquire() error { return nil }
func (b *InMemoryBinary) Release() error { return nil }

func (b *InMemoryBinary) String() string {
	return describeBinary(b.Size(), b.Hash())
}

// FileBinary reads its content from a file. The file is opened on the first
// Acquire and closed when every acquisition has been released; reads outside
// an acquisition open the file on demand.
type FileBinary struct {
	path string
	size int64

	mu   sync.Mutex
	refs int
	file *os.File

	hash atomic.Pointer[[]byte]
}

// NewFileBinary describes the file at path.
func NewFileBinary(path string) (*FileBinary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, cgerrors.IOError("stat binary file", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", cgerrors.ErrInvalidInput, path)
	}
	return &FileBinary{path: path, size: info.Size()}, nil
}

func (b *FileBinary) Path() string { return b.path }
func (b *FileBinary) Size() int64  { return b.size }

func (b *FileBinary) Bytes() ([]byte, error) {
	r, err := b.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, cgerrors.IOError("read binary file", err)
	}
	return data, nil
}

func (b *FileBinary) Reader() (io.ReadCloser, error) {
	b.mu.Lock()
	f := b.file
	b.mu.Unlock()
	if f != nil {
		return io.NopCloser(io.NewSectionReader(f, 0, b.size)), nil
	}
	f, err := os.Open(b.path)
	if err != nil {
		return nil, cgerrors.IOError("open binary file", err)
	}
	return f, nil
}

// Hash returns the digest, or EmptyHash when the file cannot be read. Failed
// attempts are not cached.
func (b *FileBinary) Hash() []byte {
	if h := b.hash.Load(); h != nil {
		return *h
	}
	r, err := b.Reader()
	if err != nil {
		slog.Warn("cannot hash binary file", "path", b.path, "error", err)
		return EmptyHash
	}
	defer r.Close()
	sum, err := digest(HashAlgorithm, r)
	if err != nil {
		slog.Warn("cannot hash binary file", "path", b.path, "error", err)
		return EmptyHash
	}
	b.hash.CompareAndSwap(nil, &sum)
	return *b.hash.Load()
}

func (b *FileBinary) Acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refs == 0 {
		f, err := os.Open(b.path)
		if err != nil {
			return cgerrors.IOError("acquire binary file", err)
		}
		b.file = f
	}
	b.refs++
	return nil
}

func (b *FileBinary) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.refs == 0 {
		return fmt.Errorf("%w: release of unacquired binary %s", cgerrors.ErrInvalidInput, b.path)
	}
	b.refs--
	if b.refs > 0 {
		return nil
	}
	f := b.file
	b.file = nil
	if err := f.Close(); err != nil {
		return cgerrors.IOError("release binary file", err)
	}
	return nil
}

// Acquired reports whether the file is currently held open.
func (b *FileBinary) Acquired() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file != nil
}

func (b *FileBinary) String() string {
	return describeBinary(b.size, b.Hash())
}
