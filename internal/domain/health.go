package domain

// ClusterInfo is the introspection snapshot the storage cluster
// reports about itself, surfaced through the health endpoint only.
type ClusterInfo struct {
	ID        string   `json:"id"`
	Version   string   `json:"version"`
	PeerCount int      `json:"peerCount"`
	Alerts    []string `json:"alerts,omitempty"`
	Endpoint  string   `json:"endpoint"`
}

type StorageStats struct {
	Photos     StorageBucketStats `json:"photos"`
	Signatures StorageBucketStats `json:"signatures"`
}

type StorageBucketStats struct {
	Count     int   `json:"count"`
	TotalSize int64 `json:"totalSize"`
}

// HealthReport aggregates the three subsystems. OK is the AND of the
// per-subsystem flags; dashboards read the detail, the request path
// never consults this.
type HealthReport struct {
	OK      bool            `json:"ok"`
	Ledger  map[string]bool `json:"ledger"`
	Cluster *ClusterInfo    `json:"cluster,omitempty"`
	Storage *StorageStats   `json:"storage,omitempty"`
}
