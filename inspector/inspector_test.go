package inspector

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingInspector counts OnRequest calls, to verify Forwarding visits
// every chain member exactly once per event.
type recordingInspector struct {
	requests int
}

func (r *recordingInspector) OnRequest(method, url string)          { r.requests++ }
func (r *recordingInspector) OnResolve(host string, ips []net.IP)    {}
func (r *recordingInspector) OnResolveError(host string, err error)  {}
func (r *recordingInspector) OnConnect(peer string)                  {}
func (r *recordingInspector) OnConnectError(peer string, err error)  {}
func (r *recordingInspector) OnHTTPResponse(peer string, code int)   {}
func (r *recordingInspector) OnHTTPError(peer string, idle bool, err error) {}
func (r *recordingInspector) OnIdleExpired(peer string)              {}
func (r *recordingInspector) OnBusyExpired(peer string)              {}

var _ Inspector = (*recordingInspector)(nil)

func TestForwardingVisitsEveryMember(t *testing.T) {
	a := &recordingInspector{}
	b := &recordingInspector{}
	chain := NewForwarding(a, b)

	chain.OnRequest("GET", "http://example.invalid/")

	assert.Equal(t, 1, a.requests)
	assert.Equal(t, 1, b.requests)
}

func TestLookupFindsConcreteType(t *testing.T) {
	a := &recordingInspector{}
	chain := NewForwarding(NopInspector{}, a)

	found, ok := Lookup[*recordingInspector](chain)
	require.True(t, ok)
	assert.Same(t, a, found)
}

func TestLookupMissReturnsZeroValue(t *testing.T) {
	chain := NewForwarding(NopInspector{})

	found, ok := Lookup[*recordingInspector](chain)
	assert.False(t, ok)
	assert.Nil(t, found)
}

func TestNopInspectorSatisfiesInterfaceWithoutPanicking(t *testing.T) {
	var insp Inspector = NopInspector{}
	insp.OnRequest("GET", "http://example.invalid/")
	insp.OnResolveError("example.invalid", errors.New("boom"))
	insp.OnIdleExpired("10.0.0.1:80")
	insp.OnBusyExpired("10.0.0.1:80")
}
