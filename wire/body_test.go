package wire

import (
	"bufio"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watt-toolkit/shockwave-engine/engineerr"
)

func TestFramingRejectsContentLengthOverMaxBodySize(t *testing.T) {
	h := make(http.Header)
	h.Set("Content-Length", "100")
	resp := &Response{StatusCode: 200, Header: h}

	_, _, err := Framing(http.MethodGet, resp, 10)
	require.Error(t, err)
	var perr *engineerr.ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestFramingAllowsContentLengthWithinMaxBodySize(t *testing.T) {
	h := make(http.Header)
	h.Set("Content-Length", "10")
	resp := &Response{StatusCode: 200, Header: h}

	framing, length, err := Framing(http.MethodGet, resp, 10)
	require.NoError(t, err)
	assert.Equal(t, FramingContentLength, framing)
	assert.EqualValues(t, 10, length)
}

func TestNewBodyReaderBoundsUntilCloseFraming(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(strings.Repeat("x", 100)))
	body := NewBodyReader(r, FramingUntilClose, -1, 10)

	_, err := io.Copy(io.Discard, body)
	require.Error(t, err)
	var perr *engineerr.ProtocolError
	assert.ErrorAs(t, err, &perr)
}

func TestNewBodyReaderAllowsUntilCloseFramingWithinBound(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(strings.Repeat("x", 5)))
	body := NewBodyReader(r, FramingUntilClose, -1, 10)

	n, err := io.Copy(io.Discard, body)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}
