package geoip

// QueueName is the dedicated river queue for lookup batches.
const QueueName = "geoip"

// LookupJob carries one filtered candidate batch. Game travels with the
// job because the worker resolves players by (game, unique_id).
type LookupJob struct {
	ServerID   int64       `json:"server_id"`
	Game       string      `json:"game"`
	Candidates []Candidate `json:"candidates"`
}

func (LookupJob) Kind() string { return "geoip_lookup" }
