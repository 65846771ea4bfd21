package wire

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/watt-toolkit/shockwave-engine/engineerr"
)

// MaxHeaderBytes is a size limit for a response's status line + header
// block. Nothing in this package applies it: ReadResponse reads the head
// with no size limit.
const MaxHeaderBytes = 1 << 20

// WriteRequest serializes the request line, headers, and (if req.Body is
// non-nil) the body onto w: a known ContentLength is sent verbatim with a
// Content-Length header, an unknown one (-1) is sent chunked, framed the
// same way ReadResponse expects a server's chunked body to look.
func WriteRequest(w *bufio.Writer, req *Request) error {
	path := req.URL.RequestURI()
	if _, err := fmt.Fprintf(w, "%s %s HTTP/1.1\r\n", req.Method, path); err != nil {
		return err
	}

	chunked := false
	if req.Body != nil {
		if req.ContentLength >= 0 {
			if req.Header.Get("Content-Length") == "" {
				req.Header.Set("Content-Length", strconv.FormatInt(req.ContentLength, 10))
			}
		} else {
			if req.Header.Get("Transfer-Encoding") == "" {
				req.Header.Set("Transfer-Encoding", "chunked")
			}
			chunked = strings.EqualFold(req.Header.Get("Transfer-Encoding"), "chunked")
		}
	}

	if err := req.Header.Write(w); err != nil {
		return err
	}

	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}

	if req.Body != nil {
		if chunked {
			if err := writeChunkedBody(w, req.Body); err != nil {
				return err
			}
		} else if _, err := io.CopyN(w, req.Body, req.ContentLength); err != nil {
			return err
		}
	}

	return w.Flush()
}

// chunkWriteBufSize bounds how much of the body reader is buffered per
// chunk; it has no bearing on correctness, only on how many chunk
// boundaries a large body is split across.
const chunkWriteBufSize = 32 * 1024

// writeChunkedBody streams r onto w using HTTP/1.1 chunked transfer
// encoding, terminating with the zero-length final chunk.
func writeChunkedBody(w *bufio.Writer, r io.Reader) error {
	buf := make([]byte, chunkWriteBufSize)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := fmt.Fprintf(w, "%x\r\n", n); err != nil {
				return err
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return err
			}
			if _, err := w.WriteString("\r\n"); err != nil {
				return err
			}
		}
		if readErr == io.EOF {
			_, err := w.WriteString("0\r\n\r\n")
			return err
		}
		if readErr != nil {
			return readErr
		}
	}
}

// ReadResponse parses a status line and header block from r, and decides
// whether the connection is keep-alive eligible per RFC 7230 §6.3: HTTP/1.1
// defaults to keep-alive unless "Connection: close" is present; HTTP/1.0
// requires an explicit "Connection: keep-alive".
func ReadResponse(r *bufio.Reader, requestMethod string) (*Response, error) {
	tp := textproto.NewReader(r)

	statusLine, err := tp.ReadLine()
	if err != nil {
		return nil, err
	}

	proto, status, ok := cutStatusLine(statusLine)
	if !ok {
		return nil, &engineerr.ProtocolError{Reason: "malformed status line: " + statusLine}
	}

	statusCode, err := strconv.Atoi(status[:3])
	if err != nil {
		return nil, &engineerr.ProtocolError{Reason: "malformed status code: " + status}
	}

	mimeHeader, err := tp.ReadMIMEHeader()
	if err != nil && err != io.EOF {
		return nil, &engineerr.ProtocolError{Reason: "malformed headers: " + err.Error()}
	}
	header := http.Header(mimeHeader)

	resp := &Response{
		StatusCode: statusCode,
		Header:     header,
		KeepAlive:  keepAliveEligible(proto, header),
	}

	return resp, nil
}

// BodyFraming describes how a response body's end is detected, mirroring
// RFC 7230 §3.3.3's precedence: chunked transfer-encoding first, then a
// declared Content-Length, then read-until-close.
type BodyFraming int

const (
	// FramingChunked indicates Transfer-Encoding: chunked.
	FramingChunked BodyFraming = iota
	// FramingContentLength indicates a fixed, declared length.
	FramingContentLength
	// FramingUntilClose indicates the body runs until the peer closes.
	FramingUntilClose
	// FramingNone indicates no body is expected for this response
	// (HEAD requests, 204, 304).
	FramingNone
)

// Framing determines how resp's body should be read, given the method of
// the request that produced it. maxBodySize rejects a declared
// Content-Length that already exceeds the configured cap before a single
// body byte is read.
func Framing(requestMethod string, resp *Response, maxBodySize int64) (BodyFraming, int64, error) {
	if requestMethod == http.MethodHead || resp.StatusCode == 204 || resp.StatusCode == 304 {
		return FramingNone, 0, nil
	}

	if te := resp.Header.Get("Transfer-Encoding"); strings.EqualFold(te, "chunked") {
		return FramingChunked, -1, nil
	}

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return 0, 0, &engineerr.ProtocolError{Reason: "malformed Content-Length: " + cl}
		}
		if maxBodySize > 0 && n > maxBodySize {
			return 0, 0, &engineerr.ProtocolError{Reason: fmt.Sprintf("content-length %d exceeds max body size %d", n, maxBodySize)}
		}
		return FramingContentLength, n, nil
	}

	return FramingUntilClose, -1, nil
}

func keepAliveEligible(proto string, header http.Header) bool {
	conn := header.Get("Connection")

	switch proto {
	case "HTTP/1.1":
		return !strings.EqualFold(conn, "close")
	case "HTTP/1.0":
		return strings.EqualFold(conn, "keep-alive")
	default:
		return false
	}
}

func cutStatusLine(line string) (proto, status string, ok bool) {
	i := strings.IndexByte(line, ' ')
	if i < 0 {
		return "", "", false
	}
	proto = line[:i]
	rest := strings.TrimLeft(line[i+1:], " ")
	if len(rest) < 3 {
		return "", "", false
	}
	return proto, rest, true
}
