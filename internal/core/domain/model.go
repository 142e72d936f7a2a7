package domain

// ModelInfo describes the loaded embedding model.
// It is established once at load and never changes afterwards.
type ModelInfo struct {
	// Name identifies the model (e.g. "BAAI/bge-m3", "nomic-embed-text").
	Name string `json:"model_name"`

	// Dimensions is the length of every vector the model produces.
	Dimensions int `json:"embedding_dim"`

	// Device is where the model runs ("cpu", "cuda", "remote").
	Device string `json:"device"`

	// MaxInputLength is the longest input, in tokens, the model encodes
	// before truncating.
	MaxInputLength int `json:"max_seq_length"`
}

// HealthStatus reports embedding service readiness.
type HealthStatus struct {
	Ready  bool   `json:"ready"`
	Status string `json:"status"`
	Model  string `json:"model,omitempty"`
}

// Health status values.
const (
	StatusHealthy = "healthy"
	StatusLoading = "loading"
	StatusFailed  = "failed"
)
