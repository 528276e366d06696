package domain

import (
	"fmt"
	"maps"
	"strconv"
	"time"

	"github.com/berfenger/solaredge2influx/pkg/sunspec_modbus"
)

const (
	MEASUREMENT_NAME = "SolarEdge"
	TAG_INVERTER     = "inverter"
	TAG_METER        = "meter"
)

// Sample is one timestamped point for a single device.
type Sample struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]any
	Time        time.Time
}

func NewInverterSample(m *sunspec_modbus.InverterMeasurements, t time.Time) Sample {
	return Sample{
		Measurement: MEASUREMENT_NAME,
		Tags:        map[string]string{TAG_INVERTER: "1"},
		Fields:      m.Fields(),
		Time:        t.UTC(),
	}
}

func NewMeterSample(m *sunspec_modbus.MeterMeasurements, t time.Time) Sample {
	return Sample{
		Measurement: MEASUREMENT_NAME,
		Tags:        map[string]string{TAG_METER: strconv.Itoa(m.Index)},
		Fields:      m.Fields(),
		Time:        t.UTC(),
	}
}

// Device returns the device path of the sample, "inverter/1" or "meter/<n>".
func (s Sample) Device() string {
	if id, ok := s.Tags[TAG_INVERTER]; ok {
		return fmt.Sprintf("%s/%s", TAG_INVERTER, id)
	}
	if id, ok := s.Tags[TAG_METER]; ok {
		return fmt.Sprintf("%s/%s", TAG_METER, id)
	}
	return "unknown"
}

// IsInverter reports whether the sample was produced by the inverter block.
func (s Sample) IsInverter() bool {
	_, ok := s.Tags[TAG_INVERTER]
	return ok
}

// Clone returns a deep copy of the tag and field maps.
func (s Sample) Clone() Sample {
	return Sample{
		Measurement: s.Measurement,
		Tags:        maps.Clone(s.Tags),
		Fields:      maps.Clone(s.Fields),
		Time:        s.Time,
	}
}
