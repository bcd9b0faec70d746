package metrics

import "sync/atomic"

// Metrics holds the server's runtime counters. Everything is atomic so the
// hot paths never take a lock to count.
type Metrics struct {
	ConnectionsTotal   atomic.Int64
	ConnectionsCurrent atomic.Int64
	MessagesIn         atomic.Int64
	MessagesOut        atomic.Int64
	BytesIn            atomic.Int64
	BytesOut           atomic.Int64
	Broadcasts         atomic.Int64
	SendFailures       atomic.Int64
	DecodeErrors       atomic.Int64
}

func New() *Metrics {
	return &Metrics{}
}

// Snapshot returns a read-only copy for the admin HTTP surface.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"connections_total":   m.ConnectionsTotal.Load(),
		"connections_current": m.ConnectionsCurrent.Load(),
		"messages_in":         m.MessagesIn.Load(),
		"messages_out":        m.MessagesOut.Load(),
		"bytes_in":            m.BytesIn.Load(),
		"bytes_out":           m.BytesOut.Load(),
		"broadcasts":          m.Broadcasts.Load(),
		"send_failures":       m.SendFailures.Load(),
		"decode_errors":       m.DecodeErrors.Load(),
	}
}
