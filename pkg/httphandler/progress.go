package httphandler

import "io"

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// progressChunk is the number of bytes received between progress reports
const progressChunk int64 = 1 << 20 // 1 MiB

///////////////////////////////////////////////////////////////////////////////
// TYPES

// progressReader wraps a request body and calls emit after every
// progressChunk bytes have been read. The body is closed with the
// underlying closer.
type progressReader struct {
	io.ReadCloser
	read    int64
	emitted int64
	total   int64 // Content-Length, -1 if unknown
	emit    func(read, total int64)
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newProgressReader(r io.ReadCloser, total int64, emit func(read, total int64)) *progressReader {
	return &progressReader{ReadCloser: r, total: total, emit: emit}
}

///////////////////////////////////////////////////////////////////////////////
// io.Reader

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.ReadCloser.Read(buf)
	if n > 0 {
		p.read += int64(n)
		for p.read-p.emitted >= progressChunk {
			p.emitted += progressChunk
			p.emit(p.emitted, p.total)
		}
	}
	return n, err
}
