package wire

import (
	"bufio"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRequestIncludesRequestLineAndHeaders(t *testing.T) {
	u, err := url.Parse("http://example.com/widgets?limit=10")
	require.NoError(t, err)

	req := NewRequest(http.MethodGet, u, nil)
	req.Header.Set("Host", "example.com")
	req.Header.Set("User-Agent", "shockwave-engine")

	var sb strings.Builder
	w := bufio.NewWriter(&sb)
	require.NoError(t, WriteRequest(w, req))

	out := sb.String()
	assert.Contains(t, out, "GET /widgets?limit=10 HTTP/1.1\r\n")
	assert.Contains(t, out, "User-Agent: shockwave-engine\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\n"))
}

func TestReadResponseHTTP11DefaultsToKeepAlive(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"
	r := bufio.NewReader(strings.NewReader(raw))

	resp, err := ReadResponse(r, http.MethodGet)
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.True(t, resp.KeepAlive)

	framing, length, err := Framing(http.MethodGet, resp, 0)
	require.NoError(t, err)
	assert.Equal(t, FramingContentLength, framing)
	assert.EqualValues(t, 5, length)
}

func TestReadResponseConnectionCloseForcesNonRecycle(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nConnection: close\r\nContent-Length: 0\r\n\r\n"
	r := bufio.NewReader(strings.NewReader(raw))

	resp, err := ReadResponse(r, http.MethodGet)
	require.NoError(t, err)
	assert.False(t, resp.KeepAlive)
}

func TestReadResponseHTTP10RequiresExplicitKeepAlive(t *testing.T) {
	raw := "HTTP/1.0 200 OK\r\nContent-Length: 0\r\n\r\n"
	r := bufio.NewReader(strings.NewReader(raw))

	resp, err := ReadResponse(r, http.MethodGet)
	require.NoError(t, err)
	assert.False(t, resp.KeepAlive)

	raw2 := "HTTP/1.0 200 OK\r\nConnection: keep-alive\r\nContent-Length: 0\r\n\r\n"
	resp2, err := ReadResponse(bufio.NewReader(strings.NewReader(raw2)), http.MethodGet)
	require.NoError(t, err)
	assert.True(t, resp2.KeepAlive)
}

func TestFramingHeadHasNoBody(t *testing.T) {
	resp := &Response{StatusCode: 200, Header: make(http.Header)}
	framing, _, err := Framing(http.MethodHead, resp, 0)
	require.NoError(t, err)
	assert.Equal(t, FramingNone, framing)
}

func TestFramingChunkedTakesPrecedenceOverContentLength(t *testing.T) {
	h := make(http.Header)
	h.Set("Transfer-Encoding", "chunked")
	resp := &Response{StatusCode: 200, Header: h}

	framing, _, err := Framing(http.MethodGet, resp, 0)
	require.NoError(t, err)
	assert.Equal(t, FramingChunked, framing)
}
