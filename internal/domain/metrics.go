package domain

// EngineMetrics is a point-in-time snapshot of engine counters for the
// GET /api/metrics/engine endpoint.
type EngineMetrics struct {
	TotalRequests  int64   `json:"totalRequests"`
	ErrorRate      float64 `json:"errorRate"`
	RecomputeCount int64   `json:"recomputeCount"`
	StoreErrors    int64   `json:"storeErrors"`
	CacheHitRate   float64 `json:"cacheHitRate"`
	Period         string  `json:"period"`
}
