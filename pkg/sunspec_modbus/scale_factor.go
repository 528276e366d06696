package sunspec_modbus

import (
	"math"
	"strconv"
)

// Sentinel marks an inverter register the device does not report.
const Sentinel uint16 = 0xFFFF

// ScaleFactor returns 10^e for the exponent held in word. Signed mode reads
// the word as int16, unsigned mode as uint16. No clamping is applied.
func ScaleFactor(word uint16, signed bool) float64 {
	if signed {
		return math.Pow10(int(int16(word)))
	}
	return math.Pow10(int(word))
}

// Round2 rounds to two decimal places the same way "%.2f" formatting does.
func Round2(value float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(value, 'f', 2, 64), 64)
	if err != nil {
		return value
	}
	return r
}

func applySF(number uint16, sf uint16) float64 {
	return Round2(float64(number) * ScaleFactor(sf, true))
}

func applySFint16(number uint16, sf uint16) float64 {
	return Round2(float64(int16(number)) * ScaleFactor(sf, true))
}

func applySFuint32(number uint32, sf uint16) float64 {
	return Round2(float64(number) * ScaleFactor(sf, false))
}
