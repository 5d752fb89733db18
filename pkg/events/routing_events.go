package events

import "time"

// NewQueryRoutedEvent records one routing decision. The audit stream exists
// because the fast-path pattern lists are tunable: false positives and
// negatives only get fixed if someone can see them.
func NewQueryRoutedEvent(sessionId, handler, decision, reason string, confidence float64, errKind string, fastPathed bool, durationMs int64) Event {
	return BaseEvent{
		Type: "QUERY_ROUTED",
		Data: map[string]interface{}{
			"session_id":  sessionId,
			"handler":     handler,
			"decision":    decision,
			"reason":      reason,
			"confidence":  confidence,
			"error_kind":  errKind,
			"fast_pathed": fastPathed,
			"duration_ms": durationMs,
		},
		OccurredAt: time.Now(),
	}
}

// NewKBSyncCompletedEvent records the outcome of one sync run.
func NewKBSyncCompletedEvent(synced, failed int, durationMs int64) Event {
	return BaseEvent{
		Type: "KB_SYNC_COMPLETED",
		Data: map[string]interface{}{
			"synced":      synced,
			"failed":      failed,
			"duration_ms": durationMs,
		},
		OccurredAt: time.Now(),
	}
}
