package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordToolCall(t *testing.T) {
	before := testutil.ToFloat64(ToolCallsTotal.WithLabelValues("create_note", "success"))
	RecordToolCall("create_note", "success", 0.2)
	assert.Equal(t, before+1, testutil.ToFloat64(ToolCallsTotal.WithLabelValues("create_note", "success")))

	unknownBefore := testutil.ToFloat64(ToolCallsTotal.WithLabelValues("delete_note", "unknown"))
	RecordToolCall("delete_note", "", 0.1)
	assert.Equal(t, unknownBefore+1, testutil.ToFloat64(ToolCallsTotal.WithLabelValues("delete_note", "unknown")))
}

func TestRecordPartialPairAndLogin(t *testing.T) {
	before := testutil.ToFloat64(PartialPairsTotal.WithLabelValues("delete"))
	RecordPartialPair("delete")
	assert.Equal(t, before+1, testutil.ToFloat64(PartialPairsTotal.WithLabelValues("delete")))

	loginBefore := testutil.ToFloat64(LoginsTotal.WithLabelValues("denied"))
	RecordLogin("denied")
	assert.Equal(t, loginBefore+1, testutil.ToFloat64(LoginsTotal.WithLabelValues("denied")))
}
