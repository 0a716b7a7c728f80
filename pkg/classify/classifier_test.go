package classify

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superrelativity/relgraph/pkg/observability"
)

var sample = []RawRelationship{
	{From: "APP-123", To: "CAP-001", Type: "OWNS", Description: "Customer Portal owns Customer Onboarding"},
	{From: "APP-123", To: "API-001", Type: "CALLS", Description: "Customer Portal calls Customer API"},
	{From: "SRV-001", To: "APP-123", Type: "HOSTS", Description: "Server hosts portal"},
	{From: "COMP-001", To: "SRV-002", Type: "INSTALLED_ON"},
	{From: "REQ-001", To: "CAP-001", Type: "REQUIRES"},
	{From: "ACH-001", To: "COMP-001", Type: "CHANGES"},
}

func TestClassifyAll(t *testing.T) {
	var buf bytes.Buffer
	c := NewClassifier(nil, log.New(&buf), Options{})

	res := c.ClassifyAll(context.Background(), sample)

	assert.Equal(t, 6, res.Stats.Total)
	assert.Equal(t, 4, res.Stats.Accepted)
	assert.Equal(t, 2, res.Stats.Rejected)
	assert.Equal(t, 1, res.Stats.ByType[Owns])
	assert.Equal(t, 1, res.Stats.ByType[Calls])
	assert.Equal(t, 1, res.Stats.ByType[InstalledOn])
	assert.Equal(t, 1, res.Stats.ByType[Changes])

	require.Len(t, res.Accepted, 4)
	assert.Equal(t, "CAP-001", res.Accepted[0].To)
	assert.Equal(t, "API-001", res.Accepted[1].To)
	assert.Equal(t, "SRV-002", res.Accepted[2].To)

	require.Len(t, res.Rejected, 2)
	assert.Equal(t, "SRV-001", res.Rejected[0].Relationship.From)
	assert.Equal(t, "REQ-001", res.Rejected[1].Relationship.From)
	assert.Contains(t, res.Rejected[0].Reason(), "Server→Application")

	assert.Equal(t, 2, strings.Count(buf.String(), "rejected relationship"))
}

func TestClassifyAllReportsRejections(t *testing.T) {
	hooks := &rejectCounter{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	c := NewClassifier(nil, log.New(&bytes.Buffer{}), Options{})
	c.ClassifyAll(context.Background(), sample)

	assert.Equal(t, 2, hooks.rejected)
	assert.Equal(t, []string{"Server→Application", "Unknown→BusinessFunction"}, hooks.pairs)
}

type rejectCounter struct {
	observability.NoopPipelineHooks
	rejected int
	pairs    []string
}

func (h *rejectCounter) OnRelationshipRejected(_ context.Context, from, to string) {
	h.rejected++
	h.pairs = append(h.pairs, from+"→"+to)
}

func TestClassifyConcurrentMatchesSequential(t *testing.T) {
	var rels []RawRelationship
	for i := range 200 {
		rels = append(rels, sample[i%len(sample)])
		rels[i].Description = fmt.Sprintf("rel-%d", i)
	}
	c := NewClassifier(nil, log.New(&bytes.Buffer{}), Options{})

	seq := c.ClassifyAll(context.Background(), rels)
	par, err := c.ClassifyConcurrent(context.Background(), rels, 8)
	require.NoError(t, err)

	assert.Equal(t, seq.Accepted, par.Accepted)
	assert.Equal(t, seq.Rejected, par.Rejected)
	assert.Equal(t, seq.Stats.ByType, par.Stats.ByType)
}

func TestClassifyConcurrentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClassifier(nil, log.New(&bytes.Buffer{}), Options{})
	_, err := c.ClassifyConcurrent(ctx, sample, 4)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyAllEmpty(t *testing.T) {
	c := NewClassifier(nil, nil, Options{})
	res := c.ClassifyAll(context.Background(), nil)
	assert.Equal(t, 0, res.Stats.Total)
	assert.Empty(t, res.Accepted)
	assert.Empty(t, res.Rejected)
}
