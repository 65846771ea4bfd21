package reactor

import (
	"context"
	"io"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/watt-toolkit/shockwave-engine/config"
	"github.com/watt-toolkit/shockwave-engine/wire"
)

// BenchmarkKeepAliveReuse measures the cost of dispatching a request
// against an idle pooled connection, the hot path spec.md §8 calls out as
// the common case — mirrors the teacher's comprehensive_benchmark_test.go
// style of a tight table-free benchmark driving the real dispatch path
// against a canned transport rather than a live socket.
func BenchmarkKeepAliveReuse(b *testing.B) {
	res := &fakeResolver{ips: []net.IP{net.ParseIP("10.0.9.1").To4()}}
	dialer := newFakeDialer()

	responses := make([]*fakeConn, 0, 1)
	first := newFakeConn(repeat("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok", b.N)...)
	responses = append(responses, first)
	dialer.script("10.0.9.1:80", responses...)

	e := New(config.New(config.WithKeepAliveTimeout(time.Minute)),
		WithResolver(res),
		WithDialer(dialer),
	)
	e.Start()

	u := mustParseBenchURL(b, "http://example.invalid/")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := wire.NewRequest("GET", u, nil)
		resp, err := e.Do(context.Background(), req)
		if err != nil {
			b.Fatalf("Do: %v", err)
		}
		drainBenchBody(b, resp)
	}
}

func repeat(s string, n int) []string {
	if n < 1 {
		n = 1
	}
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func mustParseBenchURL(b *testing.B, raw string) *url.URL {
	b.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		b.Fatal(err)
	}
	return u
}

func drainBenchBody(b *testing.B, resp *wire.Response) {
	b.Helper()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		b.Fatal(err)
	}
	if err := resp.Body.Close(); err != nil {
		b.Fatal(err)
	}
}
