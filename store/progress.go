package store

import (
	"errors"
	"io"
	"sync/atomic"
)

// progressReader counts bytes read from the wrapped reader and reports the
// running total. Backends that stream the body directly to the store use it
// as the request body.
type progressReader struct {
	r     io.Reader
	total int64
	read  atomic.Int64
	fn    ProgressFunc
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		acked := p.read.Add(int64(n))
		if p.fn != nil {
			p.fn(acked, p.total)
		}
	}
	return n, err
}

// progressReadSeeker is a progressReader over an io.ReadSeeker.
// Seeking resets the running total to the new offset; the SDK rewinds the
// body on retries.
type progressReadSeeker struct {
	*progressReader
	seeker io.Seeker
}

func (p *progressReadSeeker) Seek(offset int64, whence int) (int64, error) {
	pos, err := p.seeker.Seek(offset, whence)
	if err == nil {
		p.read.Store(pos)
	}
	return pos, err
}

// wrapBody returns body instrumented with fn, preserving io.Seeker when the
// underlying reader supports it.
func wrapBody(body io.Reader, total int64, fn ProgressFunc) io.Reader {
	pr := newProgressReader(body, total, fn)
	if s, ok := body.(io.ReadSeeker); ok {
		return &progressReadSeeker{progressReader: pr, seeker: s}
	}
	return pr
}

// progressSink is an io.Reader that is never read for content: minio-go reads
// len(p) bytes from PutObjectOptions.Progress for every chunk it uploads, so
// each Read is an acknowledgment of len(p) bytes.
type progressSink struct {
	total int64
	acked atomic.Int64
	fn    ProgressFunc
}

func (p *progressSink) Read(b []byte) (int, error) {
	if p.total > 0 && p.acked.Load() >= p.total {
		return 0, io.EOF
	}
	acked := p.acked.Add(int64(len(b)))
	if p.total > 0 {
		acked = min(acked, p.total)
	}
	if p.fn != nil {
		p.fn(acked, p.total)
	}
	return len(b), nil
}

var errNilBody = errors.New("nil body")
