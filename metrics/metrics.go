// Package metrics exposes assembly line snapshots as Prometheus gauges.
//
//	c := metrics.New("app", "encoder")
//	prometheus.MustRegister(c)
//	err := assemblyline.Run(ctx, feed, chew, digest, assemblyline.WithStatus(c.Observe))
package metrics

import (
	"github.com/fogfactory/assemblyline"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the gauges of one line. It is a prometheus.Collector.
type Collector struct {
	InputBufferSize      prometheus.Gauge
	InputBufferCapacity  prometheus.Gauge
	OutputBufferSize     prometheus.Gauge
	OutputBufferCapacity prometheus.Gauge
	FedItems             prometheus.Gauge
	ProcessingItems      prometheus.Gauge
	ProcessedItems       prometheus.Gauge
	DigestedItems        prometheus.Gauge
}

// New creates the gauges. They are not registered.
func New(namespace, subsystem string) *Collector {
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	return &Collector{
		InputBufferSize:      gauge("input_buffer_size", "Items waiting in the input buffer"),
		InputBufferCapacity:  gauge("input_buffer_capacity", "Capacity of the input buffer"),
		OutputBufferSize:     gauge("output_buffer_size", "Chewed items waiting in the output buffer"),
		OutputBufferCapacity: gauge("output_buffer_capacity", "Capacity of the output buffer"),
		FedItems:             gauge("fed_items", "Items returned by the feeder during the current run"),
		ProcessingItems:      gauge("processing_items", "Chews in flight"),
		ProcessedItems:       gauge("processed_items", "Items chewed during the current run"),
		DigestedItems:        gauge("digested_items", "Items digested during the current run"),
	}
}

func (c *Collector) gauges() []prometheus.Gauge {
	return []prometheus.Gauge{
		c.InputBufferSize, c.InputBufferCapacity,
		c.OutputBufferSize, c.OutputBufferCapacity,
		c.FedItems, c.ProcessingItems, c.ProcessedItems, c.DigestedItems,
	}
}

// Observe sets the gauges from s. Its signature matches assemblyline.StatusFunc.
func (c *Collector) Observe(s assemblyline.Status) error {
	c.InputBufferSize.Set(float64(s.InputBufferSize))
	c.InputBufferCapacity.Set(float64(s.InputBufferCapacity))
	c.OutputBufferSize.Set(float64(s.OutputBufferSize))
	c.OutputBufferCapacity.Set(float64(s.OutputBufferCapacity))
	c.FedItems.Set(float64(s.Fed))
	c.ProcessingItems.Set(float64(s.Processing))
	c.ProcessedItems.Set(float64(s.Processed))
	c.DigestedItems.Set(float64(s.Digested))
	return nil
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, g := range c.gauges() {
		g.Describe(ch)
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, g := range c.gauges() {
		g.Collect(ch)
	}
}
