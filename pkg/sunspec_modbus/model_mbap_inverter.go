package sunspec_modbus

import (
	"fmt"
)

const (
	InverterBaseAddress uint16 = 40069
	InverterBlockLength uint16 = 40
)

// register offsets inside the inverter block (SunSpec models 101-103)
const (
	invDID           = 0
	invLength        = 1
	invACCurrent     = 2
	invACCurrentA    = 3
	invACCurrentB    = 4
	invACCurrentC    = 5
	invACCurrentSF   = 6
	invACVoltageAB   = 7
	invACVoltageBC   = 8
	invACVoltageCA   = 9
	invACVoltageAN   = 10
	invACVoltageBN   = 11
	invACVoltageCN   = 12
	invACVoltageSF   = 13
	invACPower       = 14
	invACPowerSF     = 15
	invACFrequency   = 16
	invACFrequencySF = 17
	invACVA          = 18
	invACVASF        = 19
	invACVAR         = 20
	invACVARSF       = 21
	invACPF          = 22
	invACPFSF        = 23
	invACEnergyHi    = 24
	invACEnergyLo    = 25
	invACEnergySF    = 26
	invDCCurrent     = 27
	invDCCurrentSF   = 28
	invDCVoltage     = 29
	invDCVoltageSF   = 30
	invDCPower       = 31
	invDCPowerSF     = 32
	invTempSink      = 34
	invTempSF        = 37
	invState         = 38
	invStateVendor   = 39
)

// inverter field names
const (
	FieldACCurrent       = "AC_Current"
	FieldACCurrentA      = "AC_CurrentA"
	FieldACCurrentB      = "AC_CurrentB"
	FieldACCurrentC      = "AC_CurrentC"
	FieldACVoltageAB     = "AC_VoltageAB"
	FieldACVoltageBC     = "AC_VoltageBC"
	FieldACVoltageCA     = "AC_VoltageCA"
	FieldACVoltageAN     = "AC_VoltageAN"
	FieldACVoltageBN     = "AC_VoltageBN"
	FieldACVoltageCN     = "AC_VoltageCN"
	FieldACPower         = "AC Power output"
	FieldACFrequency     = "AC_Frequency"
	FieldACApparentPower = "AC_VA"
	FieldACReactivePower = "AC_VAR"
	FieldACPowerFactor   = "AC_PF"
	FieldACEnergy        = "AC_Energy_WH"
	FieldDCCurrent       = "DC Current"
	FieldDCVoltage       = "DC Voltage"
	FieldDCPower         = "DC Power input"
	FieldTemperature     = "Inverter Temperature"
	FieldStatus          = "Status"
	FieldStatusVendor    = "Status_Vendor"
)

const (
	InverterStatusOff          = 1
	InverterStatusSleeping     = 2
	InverterStatusStarting     = 3
	InverterStatusMPPT         = 4
	InverterStatusThrottled    = 5
	InverterStatusShuttingDown = 6
	InverterStatusFault        = 7
	InverterStatusStandby      = 8
)

const (
	InverterStatusOffStr          = "off"
	InverterStatusSleepingStr     = "sleeping"
	InverterStatusStartingStr     = "starting"
	InverterStatusMPPTStr         = "mppt_tracking"
	InverterStatusThrottledStr    = "throttled"
	InverterStatusShuttingDownStr = "shutting_down"
	InverterStatusFaultStr        = "fault"
	InverterStatusStandbyStr      = "standby"
	InverterStatusUnknown         = "unknown"
)

func InverterStatusToString(state uint16) string {
	switch state {
	case InverterStatusOff:
		return InverterStatusOffStr
	case InverterStatusSleeping:
		return InverterStatusSleepingStr
	case InverterStatusStarting:
		return InverterStatusStartingStr
	case InverterStatusMPPT:
		return InverterStatusMPPTStr
	case InverterStatusThrottled:
		return InverterStatusThrottledStr
	case InverterStatusShuttingDown:
		return InverterStatusShuttingDownStr
	case InverterStatusFault:
		return InverterStatusFaultStr
	case InverterStatusStandby:
		return InverterStatusStandbyStr
	default:
		return fmt.Sprintf("%s(%d)", InverterStatusUnknown, state)
	}
}

// InverterMeasurements holds one decoded inverter block. Nil fields were
// reported as not available by the device.
type InverterMeasurements struct {
	ACCurrent  *float64
	ACCurrentA *float64
	ACCurrentB *float64
	ACCurrentC *float64

	ACVoltageAB *float64
	ACVoltageBC *float64
	ACVoltageCA *float64
	ACVoltageAN *float64
	ACVoltageBN *float64
	ACVoltageCN *float64

	ACPower         *float64
	ACFrequency     *float64
	ACApparentPower *float64
	ACReactivePower *float64
	ACPowerFactor   *float64

	// Lifetime energy in Wh, always reported
	ACEnergyWh float64

	DCCurrent *float64
	DCVoltage *float64
	DCPower   *float64

	Temperature *float64

	Status       *float64
	StatusVendor *float64

	// raw operating state register
	OperatingState uint16
}

// Fields returns the reported measurements keyed by field name.
func (m InverterMeasurements) Fields() map[string]any {
	fields := map[string]any{
		FieldACEnergy: m.ACEnergyWh,
	}
	optional := []struct {
		name  string
		value *float64
	}{
		{FieldACCurrent, m.ACCurrent},
		{FieldACCurrentA, m.ACCurrentA},
		{FieldACCurrentB, m.ACCurrentB},
		{FieldACCurrentC, m.ACCurrentC},
		{FieldACVoltageAB, m.ACVoltageAB},
		{FieldACVoltageBC, m.ACVoltageBC},
		{FieldACVoltageCA, m.ACVoltageCA},
		{FieldACVoltageAN, m.ACVoltageAN},
		{FieldACVoltageBN, m.ACVoltageBN},
		{FieldACVoltageCN, m.ACVoltageCN},
		{FieldACPower, m.ACPower},
		{FieldACFrequency, m.ACFrequency},
		{FieldACApparentPower, m.ACApparentPower},
		{FieldACReactivePower, m.ACReactivePower},
		{FieldACPowerFactor, m.ACPowerFactor},
		{FieldDCCurrent, m.DCCurrent},
		{FieldDCVoltage, m.DCVoltage},
		{FieldDCPower, m.DCPower},
		{FieldTemperature, m.Temperature},
		{FieldStatus, m.Status},
		{FieldStatusVendor, m.StatusVendor},
	}
	for _, f := range optional {
		if f.value != nil {
			fields[f.name] = *f.value
		}
	}
	return fields
}
