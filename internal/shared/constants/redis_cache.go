package constants

import (
	"fmt"
	"time"
)

// Redis key and TTL conventions.
// Pattern: ticketly:{module}:{operation}:{identifier}

const CACHE_PREFIX = "ticketly"

// Semi-static data (changes occasionally)
const (
	TTL_EVENT_DETAIL = 2 * time.Hour
	TTL_EVENTS_LIST  = 15 * time.Minute
)

// Dynamic data (changes with every hold/booking)
const (
	TTL_SEAT_MAP = 30 * time.Second
)

// Event cache keys
const (
	CACHE_KEY_EVENTS_LIST  = CACHE_PREFIX + ":events:list"
	CACHE_KEY_EVENT_DETAIL = CACHE_PREFIX + ":events:detail:"
	CACHE_KEY_SEAT_MAP     = CACHE_PREFIX + ":seats:map:"
)

// BuildEventDetailKey returns the cache key for a single event
func BuildEventDetailKey(eventID string) string {
	return CACHE_KEY_EVENT_DETAIL + eventID
}

// BuildSeatMapKey returns the cache key for an event's seat map
func BuildSeatMapKey(eventID string) string {
	return CACHE_KEY_SEAT_MAP + eventID
}

// BuildEventsListKey returns the cache key for a paginated event listing
func BuildEventsListKey(page, limit int) string {
	return fmt.Sprintf("%s:page:%d:limit:%d", CACHE_KEY_EVENTS_LIST, page, limit)
}
