package booking

import (
	"context"
	"strings"

	"github.com/samber/lo"
)

// EstimateRequest is the stdin contract with the rideshare scraping script.
type EstimateRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// Services people actually book; everything else gets filtered out of the
// estimate list.
var rideServiceKeep = map[string]bool{
	"uberx":  true,
	"uberxl": true,
	"share":  true,
}

// EstimateRideshare runs the estimate script and prunes its estimate list to
// usable services with a known duration.
func (e *Executor) EstimateRideshare(ctx context.Context, req EstimateRequest) map[string]any {
	result := e.run(ctx, e.cfg.EstimateScript, req)
	return FilterEstimates(result)
}

// FilterEstimates keeps only estimates whose service is in the keep set and
// whose duration is known. Non-estimate fields pass through untouched.
func FilterEstimates(result map[string]any) map[string]any {
	raw, ok := result["estimates"].([]any)
	if !ok {
		return result
	}
	result["estimates"] = lo.Filter(raw, func(item any, _ int) bool {
		est, isObj := item.(map[string]any)
		if !isObj {
			return false
		}
		service, _ := est["service"].(string)
		duration, _ := est["duration"].(string)
		return rideServiceKeep[strings.ToLower(service)] &&
			strings.ToLower(duration) != "unavailable"
	})
	return result
}
