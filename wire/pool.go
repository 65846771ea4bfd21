package wire

import (
	"bufio"
	"io"
	"sync"
)

// DefaultBufferSize matches the teacher http11 package's pooled bufio
// size; kept identical so a swap between the two packages needs no
// re-tuning.
const DefaultBufferSize = 4096

var readerPool = sync.Pool{
	New: func() any { return bufio.NewReaderSize(nil, DefaultBufferSize) },
}

var writerPool = sync.Pool{
	New: func() any { return bufio.NewWriterSize(nil, DefaultBufferSize) },
}

// GetReader returns a pooled *bufio.Reader reset onto r.
func GetReader(r io.Reader) *bufio.Reader {
	br := readerPool.Get().(*bufio.Reader)
	br.Reset(r)
	return br
}

// PutReader returns br to the pool. Callers must not use br afterward.
func PutReader(br *bufio.Reader) {
	br.Reset(nil)
	readerPool.Put(br)
}

// GetWriter returns a pooled *bufio.Writer reset onto w.
func GetWriter(w io.Writer) *bufio.Writer {
	bw := writerPool.Get().(*bufio.Writer)
	bw.Reset(w)
	return bw
}

// PutWriter returns bw to the pool. Callers must not use bw afterward.
func PutWriter(bw *bufio.Writer) {
	bw.Reset(nil)
	writerPool.Put(bw)
}
