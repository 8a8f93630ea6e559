package events

// EventData is the interface that all typed event payloads implement.
// This allows for type-safe event data while keeping the wire shape generic.
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// RateUpdatedData contains data for RateUpdated events
type RateUpdatedData struct {
	Date   string  `json:"date"`
	Rate   float64 `json:"rate"`
	Source string  `json:"source"`
}

// EventType returns the event type for RateUpdatedData
func (d *RateUpdatedData) EventType() EventType {
	return RateUpdated
}

// ValuationCompletedData contains data for ValuationCompleted events
type ValuationCompletedData struct {
	RunID         string  `json:"run_id"`
	IndexID       string  `json:"index_id"`
	ValuationDate string  `json:"valuation_date"`
	ScalingFactor float64 `json:"scaling_factor"`
	AssetCount    int     `json:"asset_count"`
}

// EventType returns the event type for ValuationCompletedData
func (d *ValuationCompletedData) EventType() EventType {
	return ValuationCompleted
}

// ValuationFailedData contains data for ValuationFailed events
type ValuationFailedData struct {
	IndexID       string `json:"index_id"`
	ValuationDate string `json:"valuation_date"`
	Error         string `json:"error"`
}

// EventType returns the event type for ValuationFailedData
func (d *ValuationFailedData) EventType() EventType {
	return ValuationFailed
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Archive   string `json:"archive"`
	SizeBytes int64  `json:"size_bytes"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// FeedStatusChangedData contains data for FeedStatusChanged events
type FeedStatusChangedData struct {
	Connected bool   `json:"connected"`
	Timestamp string `json:"timestamp"`
}

// EventType returns the event type for FeedStatusChangedData
func (d *FeedStatusChangedData) EventType() EventType {
	return FeedStatusChanged
}
