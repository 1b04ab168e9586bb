package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordNotification(t *testing.T) {
	success := testutil.ToFloat64(NotificationsSent.WithLabelValues("test", "success"))
	failed := testutil.ToFloat64(NotificationsSent.WithLabelValues("test", "failed"))

	RecordNotification("test", nil)
	RecordNotification("test", errors.New("smtp down"))
	RecordNotification("test", nil)

	assert.Equal(t, success+2, testutil.ToFloat64(NotificationsSent.WithLabelValues("test", "success")))
	assert.Equal(t, failed+1, testutil.ToFloat64(NotificationsSent.WithLabelValues("test", "failed")))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/test", "200"))

	RecordHTTPRequest("GET", "/test", "200", 15*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/test", "200")))
}
