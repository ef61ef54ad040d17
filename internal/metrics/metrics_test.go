package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveBrokerInvocationLabelsOutcome(t *testing.T) {
	before := testutil.CollectAndCount(BrokerInvocationDuration)

	ObserveBrokerInvocation("test.hello", time.Now(), nil)
	ObserveBrokerInvocation("test.hello", time.Now(), assertErr{})

	after := testutil.CollectAndCount(BrokerInvocationDuration)
	assert.Equal(t, before+2, after, "expected one series per (action, outcome) pair observed")
}

func TestParserFailuresTotalIncrements(t *testing.T) {
	before := testutil.ToFloat64(ParserFailuresTotal.WithLabelValues("application/json"))
	ParserFailuresTotal.WithLabelValues("application/json").Inc()
	after := testutil.ToFloat64(ParserFailuresTotal.WithLabelValues("application/json"))
	assert.Equal(t, before+1, after)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
