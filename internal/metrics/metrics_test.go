// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/incidents", "200"))

	RecordAPIRequest("GET", "/api/v1/incidents", "200", 25*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/incidents", "200"))
	if after != before+1 {
		t.Errorf("APIRequestsTotal = %v, want %v", after, before+1)
	}
}

func TestRecordStoreOp(t *testing.T) {
	errBefore := testutil.ToFloat64(StoreOpErrors.WithLabelValues("get", "incidents"))

	RecordStoreOp("get", "incidents", time.Millisecond, nil)
	if got := testutil.ToFloat64(StoreOpErrors.WithLabelValues("get", "incidents")); got != errBefore {
		t.Errorf("StoreOpErrors incremented on success: %v", got)
	}

	RecordStoreOp("get", "incidents", time.Millisecond, errors.New("key not found"))
	if got := testutil.ToFloat64(StoreOpErrors.WithLabelValues("get", "incidents")); got != errBefore+1 {
		t.Errorf("StoreOpErrors = %v, want %v", got, errBefore+1)
	}
}

func TestRecordEventDelivery(t *testing.T) {
	tests := []struct {
		name       string
		recipients int
		err        error
		outcome    string
	}{
		{"delivered", 3, nil, "delivered"},
		{"no recipients", 0, nil, "no_recipients"},
		{"failed", 0, errors.New("lookup failed"), "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(EventDeliveries.WithLabelValues("fireCreated", tt.outcome))
			RecordEventDelivery("fireCreated", tt.recipients, tt.err)
			after := testutil.ToFloat64(EventDeliveries.WithLabelValues("fireCreated", tt.outcome))
			if after != before+1 {
				t.Errorf("outcome %q count = %v, want %v", tt.outcome, after, before+1)
			}
		})
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("APIActiveRequests = %v, want %v", got, before+1)
	}

	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("APIActiveRequests = %v, want %v", got, before)
	}
}

func TestWSGauges(t *testing.T) {
	before := testutil.ToFloat64(WSConnections)

	WSConnections.Inc()
	WSConnections.Inc()
	WSConnections.Dec()

	if got := testutil.ToFloat64(WSConnections); got != before+1 {
		t.Errorf("WSConnections = %v, want %v", got, before+1)
	}
	WSConnections.Dec()
}
