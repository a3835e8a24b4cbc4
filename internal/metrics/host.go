package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var socTemperature = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "host",
	Name:      "temperature_celsius",
	Help:      "Thermal zone temperature",
}, []string{"zone"})

// SetTemperature sets the temperature of a thermal zone.
func SetTemperature(zone string, celsius float64) {
	socTemperature.WithLabelValues(zone).Set(celsius)
}

// DeleteTemperature removes a thermal zone that disappeared.
func DeleteTemperature(zone string) {
	socTemperature.DeleteLabelValues(zone)
}
