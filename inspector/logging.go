package inspector

import (
	"net"

	"github.com/rs/zerolog"
)

// LoggingInspector emits one structured zerolog event per lifecycle hook,
// grounded on the gateway package's logger.With().Str("component", ...)
// sub-logger pattern (services/gateway/provider/healthpoller.go in the
// example corpus) rather than the teacher's own bare-stdlib-log middleware,
// since zerolog is the structured logger the broader corpus actually
// depends on directly.
type LoggingInspector struct {
	log zerolog.Logger
}

// NewLoggingInspector returns an Inspector that logs through a
// "component":"reactor" sub-logger of base.
func NewLoggingInspector(base zerolog.Logger) *LoggingInspector {
	return &LoggingInspector{log: base.With().Str("component", "reactor").Logger()}
}

func (l *LoggingInspector) OnRequest(method, url string) {
	l.log.Debug().Str("method", method).Str("url", url).Msg("request")
}

func (l *LoggingInspector) OnResolve(host string, ips []net.IP) {
	l.log.Debug().Str("host", host).Int("records", len(ips)).Msg("resolved")
}

func (l *LoggingInspector) OnResolveError(host string, err error) {
	l.log.Warn().Str("host", host).Err(err).Msg("resolve error")
}

func (l *LoggingInspector) OnConnect(peer string) {
	l.log.Debug().Str("peer", peer).Msg("connected")
}

func (l *LoggingInspector) OnConnectError(peer string, err error) {
	l.log.Warn().Str("peer", peer).Err(err).Msg("connect error")
}

func (l *LoggingInspector) OnHTTPResponse(peer string, statusCode int) {
	l.log.Debug().Str("peer", peer).Int("status", statusCode).Msg("response")
}

func (l *LoggingInspector) OnHTTPError(peer string, wasIdle bool, err error) {
	event := l.log.Warn()
	if wasIdle {
		// Pooled idle socket reset by the peer — expected background
		// noise, not a request failure.
		event = l.log.Debug()
	}
	event.Str("peer", peer).Bool("was_idle", wasIdle).Err(err).Msg("http error")
}

func (l *LoggingInspector) OnIdleExpired(peer string) {
	l.log.Debug().Str("peer", peer).Msg("idle connection expired")
}

func (l *LoggingInspector) OnBusyExpired(peer string) {
	l.log.Warn().Str("peer", peer).Msg("busy connection exceeded active deadline")
}

var _ Inspector = (*LoggingInspector)(nil)
