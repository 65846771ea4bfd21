package wire

import (
	"bufio"
	"io"
	"net/http"
	"net/http/httputil"

	"github.com/watt-toolkit/shockwave-engine/engineerr"
)

// NewBodyReader wraps r according to framing, returning an io.Reader that
// reads exactly the response body's bytes and stops at the frame boundary
// (a fixed length, a chunked terminator, or EOF). It never closes the
// underlying connection; that decision belongs to the Connection once the
// body has been fully drained. A Content-Length body over maxBodySize is
// already rejected by Framing before this is reached; maxBodySize here
// bounds the two framings without a declared length up front (chunked,
// until-close), failing with a *engineerr.ProtocolError once the cap is
// crossed rather than reading an unbounded body into memory. maxBodySize
// <= 0 means unlimited.
func NewBodyReader(r *bufio.Reader, framing BodyFraming, contentLength int64, maxBodySize int64) io.Reader {
	switch framing {
	case FramingNone:
		return http.NoBody
	case FramingChunked:
		return boundReader(httputil.NewChunkedReader(r), maxBodySize)
	case FramingContentLength:
		return io.LimitReader(r, contentLength)
	default: // FramingUntilClose
		return boundReader(r, maxBodySize)
	}
}

// boundReader wraps r so that reading more than limit bytes fails with a
// *engineerr.ProtocolError instead of continuing unbounded. limit <= 0
// disables the bound.
func boundReader(r io.Reader, limit int64) io.Reader {
	if limit <= 0 {
		return r
	}
	return &maxSizeReader{r: r, remaining: limit}
}

type maxSizeReader struct {
	r         io.Reader
	remaining int64
}

func (m *maxSizeReader) Read(p []byte) (int, error) {
	if m.remaining < 0 {
		return 0, &engineerr.ProtocolError{Reason: "response body exceeds configured max body size"}
	}
	if int64(len(p)) > m.remaining+1 {
		p = p[:m.remaining+1]
	}
	n, err := m.r.Read(p)
	m.remaining -= int64(n)
	if m.remaining < 0 {
		return n, &engineerr.ProtocolError{Reason: "response body exceeds configured max body size"}
	}
	return n, err
}
