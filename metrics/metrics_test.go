package metrics_test

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/fogfactory/assemblyline"
	"github.com/fogfactory/assemblyline/metrics"
	"github.com/maxatome/go-testdeep/td"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
)

func TestCollector(t *testing.T) {
	t.Run("observe_run", func(t *testing.T) {
		// Arrange
		c := metrics.New("test", "line")
		reg := prometheus.NewPedanticRegistry()
		td.Require(t).CmpNoError(reg.Register(c))

		// Act
		err := assemblyline.Run(context.Background(),
			assemblyline.FeedSlice(lo.Range(30)),
			assemblyline.AsChewer(strconv.Itoa),
			assemblyline.AsDigester(func(string, int64) {}),
			assemblyline.WithWorkers(2),
			assemblyline.WithStatus(c.Observe))

		// Assert
		td.CmpNoError(t, err)
		td.Cmp(t, testutil.ToFloat64(c.DigestedItems), 30.0)
		td.Cmp(t, testutil.ToFloat64(c.FedItems), 30.0)
		td.Cmp(t, testutil.ToFloat64(c.InputBufferCapacity), 4.0)
		td.Cmp(t, testutil.ToFloat64(c.ProcessingItems), 0.0)
		count, err := testutil.GatherAndCount(reg)
		td.CmpNoError(t, err)
		td.Cmp(t, count, 8)
	})

	t.Run("exposition", func(t *testing.T) {
		// Arrange
		c := metrics.New("test", "line")

		// Act
		_ = c.Observe(assemblyline.Status{OutputBufferSize: 3, OutputBufferCapacity: 8})

		// Assert
		td.CmpNoError(t, testutil.CollectAndCompare(c, strings.NewReader(`
# HELP test_line_output_buffer_size Chewed items waiting in the output buffer
# TYPE test_line_output_buffer_size gauge
test_line_output_buffer_size 3
`), "test_line_output_buffer_size"))
	})
}
