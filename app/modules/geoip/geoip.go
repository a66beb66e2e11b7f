// Package geoip enriches player rows with geolocation data. Connect
// handling submits candidates; the service filters them and queues lookup
// batches on river so HTTP latency never sits on the event path.
package geoip

import (
	"context"
	"errors"
	"net"
)

// Candidate is one player address submitted for enrichment.
type Candidate struct {
	PlayerID  int64  `json:"player_id"`
	UniqueID  string `json:"unique_id"`
	IPAddress string `json:"ip_address"`
	IsBot     bool   `json:"is_bot"`
}

// Location is one successful lookup result.
type Location struct {
	City        string
	Country     string
	CountryCode string
	Latitude    float64
	Longitude   float64
}

// Lookuper resolves an IP address to a location.
type Lookuper interface {
	Lookup(ctx context.Context, ip string) (*Location, error)
}

// ErrNotFound reports that the lookup endpoint has no location for the
// address. Workers treat it as a miss, not a retryable failure.
var ErrNotFound = errors.New("geoip: no location for address")

// Metrics is the observability slice the enrichment pipeline records.
type Metrics interface {
	RecordGeoLookup(outcome string)
	RecordSessionsSwept(n int)
	SetActiveSessions(n int)
}

// hostOnly strips an optional :port suffix from a game-feed address.
func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// publicIP reports whether the address parses and is globally routable.
// Bots and LAN clients carry addresses no lookup endpoint can resolve.
func publicIP(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return false
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return false
	}
	return true
}
