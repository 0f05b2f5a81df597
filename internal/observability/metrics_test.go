package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTransition(t *testing.T) {
	okBefore := testutil.ToFloat64(PurchaseRequestTransitions.WithLabelValues("approve", ResultSuccess))
	errBefore := testutil.ToFloat64(PurchaseRequestTransitions.WithLabelValues("approve", ResultError))

	RecordTransition("approve", nil)
	RecordTransition("approve", errors.New("boom"))
	RecordTransition("approve", nil)

	assert.Equal(t, okBefore+2, testutil.ToFloat64(PurchaseRequestTransitions.WithLabelValues("approve", ResultSuccess)))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(PurchaseRequestTransitions.WithLabelValues("approve", ResultError)))
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "stockflow-test"})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := StartServiceSpan(context.Background(), "test", "noop")
	EndSpan(span, errors.New("ignored by noop tracer"))
	assert.Equal(t, "", TraceIDFromContext(ctx))
}
