package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordGatewayCall(t *testing.T) {
	okBefore := testutil.ToFloat64(GatewayRequestsTotal.WithLabelValues("create_product", "ok"))
	errBefore := testutil.ToFloat64(GatewayRequestsTotal.WithLabelValues("create_product", "error"))

	RecordGatewayCall("create_product", nil, 0.01)
	RecordGatewayCall("create_product", errors.New("timeout"), 0.5)
	RecordGatewayCall("create_product", nil, 0.02)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(GatewayRequestsTotal.WithLabelValues("create_product", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(GatewayRequestsTotal.WithLabelValues("create_product", "error")))
}
