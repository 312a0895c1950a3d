package metrics

import (
	"sync/atomic"
	"time"
)

// Collector provides simple built-in metrics collection with no external dependencies
type Collector struct {
	applicationMetrics *ApplicationMetrics
	startTime          time.Time
}

// ApplicationMetrics tracks live-text engine activity
type ApplicationMetrics struct {
	// Instance lifecycle
	InstancesAttached  int64 `json:"instances_attached"`
	InstancesDetached  int64 `json:"instances_detached"`
	ActiveInstances    int64 `json:"active_instances"`
	MaxActiveInstances int64 `json:"max_active_instances"`
	ContextRebinds     int64 `json:"context_rebinds"`

	// Element subscriptions
	MarkersCreated int64 `json:"markers_created"`
	MarkersDeleted int64 `json:"markers_deleted"`
	SlotRebinds    int64 `json:"slot_rebinds"`
	SlotReuses     int64 `json:"slot_reuses"`

	// Change propagation
	ContentChanges int64 `json:"content_changes"`
	ReplaceEvents  int64 `json:"replace_events"`
	DiffPatches    int64 `json:"diff_patches"`
	BytesInserted  int64 `json:"bytes_inserted"`
	BytesDeleted   int64 `json:"bytes_deleted"`

	// External handlers
	HandlerCalls    int64 `json:"handler_calls"`
	HandlerFailures int64 `json:"handler_failures"`

	// Uptime
	StartTime time.Time     `json:"start_time"`
	Uptime    time.Duration `json:"uptime"`
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		applicationMetrics: &ApplicationMetrics{
			StartTime: time.Now(),
		},
		startTime: time.Now(),
	}
}

// IncrementInstanceAttached records a bound instance going live
func (c *Collector) IncrementInstanceAttached() {
	atomic.AddInt64(&c.applicationMetrics.InstancesAttached, 1)
	currentActive := atomic.AddInt64(&c.applicationMetrics.ActiveInstances, 1)

	// Update max concurrent if needed
	for {
		max := atomic.LoadInt64(&c.applicationMetrics.MaxActiveInstances)
		if currentActive <= max {
			break
		}
		if atomic.CompareAndSwapInt64(&c.applicationMetrics.MaxActiveInstances, max, currentActive) {
			break
		}
	}
}

// IncrementInstanceDetached records a bound instance being torn down
func (c *Collector) IncrementInstanceDetached() {
	atomic.AddInt64(&c.applicationMetrics.InstancesDetached, 1)
	atomic.AddInt64(&c.applicationMetrics.ActiveInstances, -1)
}

// IncrementContextRebind records an instance switching data context in place
func (c *Collector) IncrementContextRebind() {
	atomic.AddInt64(&c.applicationMetrics.ContextRebinds, 1)
}

// IncrementMarkerCreated records a new element marker
func (c *Collector) IncrementMarkerCreated() {
	atomic.AddInt64(&c.applicationMetrics.MarkersCreated, 1)
}

// IncrementMarkerDeleted records a removed element marker
func (c *Collector) IncrementMarkerDeleted() {
	atomic.AddInt64(&c.applicationMetrics.MarkersDeleted, 1)
}

// IncrementSlotRebind records an element subscription moved to a new value.
// reused is true when the live subscription was kept instead of recreated.
func (c *Collector) IncrementSlotRebind(reused bool) {
	atomic.AddInt64(&c.applicationMetrics.SlotRebinds, 1)
	if reused {
		atomic.AddInt64(&c.applicationMetrics.SlotReuses, 1)
	}
}

// RecordContentChange records one content change and the patches it produced
func (c *Collector) RecordContentChange(patches int) {
	atomic.AddInt64(&c.applicationMetrics.ContentChanges, 1)
	if patches > 1 {
		atomic.AddInt64(&c.applicationMetrics.DiffPatches, int64(patches))
	}
}

// RecordReplace records an applied replace event
func (c *Collector) RecordReplace(deleted, inserted int) {
	atomic.AddInt64(&c.applicationMetrics.ReplaceEvents, 1)
	atomic.AddInt64(&c.applicationMetrics.BytesDeleted, int64(deleted))
	atomic.AddInt64(&c.applicationMetrics.BytesInserted, int64(inserted))
}

// IncrementHandlerCall records a delivery to an external handler
func (c *Collector) IncrementHandlerCall() {
	atomic.AddInt64(&c.applicationMetrics.HandlerCalls, 1)
}

// IncrementHandlerFailure records an external handler error or panic
func (c *Collector) IncrementHandlerFailure() {
	atomic.AddInt64(&c.applicationMetrics.HandlerFailures, 1)
}

// GetMetrics returns current application metrics
func (c *Collector) GetMetrics() ApplicationMetrics {
	return ApplicationMetrics{
		InstancesAttached:  atomic.LoadInt64(&c.applicationMetrics.InstancesAttached),
		InstancesDetached:  atomic.LoadInt64(&c.applicationMetrics.InstancesDetached),
		ActiveInstances:    atomic.LoadInt64(&c.applicationMetrics.ActiveInstances),
		MaxActiveInstances: atomic.LoadInt64(&c.applicationMetrics.MaxActiveInstances),
		ContextRebinds:     atomic.LoadInt64(&c.applicationMetrics.ContextRebinds),
		MarkersCreated:     atomic.LoadInt64(&c.applicationMetrics.MarkersCreated),
		MarkersDeleted:     atomic.LoadInt64(&c.applicationMetrics.MarkersDeleted),
		SlotRebinds:        atomic.LoadInt64(&c.applicationMetrics.SlotRebinds),
		SlotReuses:         atomic.LoadInt64(&c.applicationMetrics.SlotReuses),
		ContentChanges:     atomic.LoadInt64(&c.applicationMetrics.ContentChanges),
		ReplaceEvents:      atomic.LoadInt64(&c.applicationMetrics.ReplaceEvents),
		DiffPatches:        atomic.LoadInt64(&c.applicationMetrics.DiffPatches),
		BytesInserted:      atomic.LoadInt64(&c.applicationMetrics.BytesInserted),
		BytesDeleted:       atomic.LoadInt64(&c.applicationMetrics.BytesDeleted),
		HandlerCalls:       atomic.LoadInt64(&c.applicationMetrics.HandlerCalls),
		HandlerFailures:    atomic.LoadInt64(&c.applicationMetrics.HandlerFailures),
		StartTime:          c.applicationMetrics.StartTime,
		Uptime:             time.Since(c.startTime),
	}
}

// GetReuseRate returns the percentage of slot rebinds that kept their live subscription
func (c *Collector) GetReuseRate() float64 {
	rebinds := atomic.LoadInt64(&c.applicationMetrics.SlotRebinds)
	reuses := atomic.LoadInt64(&c.applicationMetrics.SlotReuses)

	if rebinds == 0 {
		return 0.0
	}

	return float64(reuses) / float64(rebinds) * 100.0
}

// GetHandlerSuccessRate returns the success rate for external handler deliveries
func (c *Collector) GetHandlerSuccessRate() float64 {
	calls := atomic.LoadInt64(&c.applicationMetrics.HandlerCalls)
	failures := atomic.LoadInt64(&c.applicationMetrics.HandlerFailures)

	if calls == 0 {
		return 100.0 // No deliveries means 100% success rate
	}

	return float64(calls-failures) / float64(calls) * 100.0
}

// GetAverageEventSize returns the mean number of bytes touched per replace event
func (c *Collector) GetAverageEventSize() float64 {
	events := atomic.LoadInt64(&c.applicationMetrics.ReplaceEvents)
	if events == 0 {
		return 0.0
	}

	touched := atomic.LoadInt64(&c.applicationMetrics.BytesInserted) + atomic.LoadInt64(&c.applicationMetrics.BytesDeleted)
	return float64(touched) / float64(events)
}
