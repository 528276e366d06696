package sunspec_modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringToWords(s string, size int) []uint16 {
	bytes := make([]byte, 2*size)
	copy(bytes, s)
	words := make([]uint16, size)
	for i := range words {
		words[i] = uint16(bytes[2*i])<<8 | uint16(bytes[2*i+1])
	}
	return words
}

func surveySource() *TestRegisterSource {
	src := CreateTestRegisterSource()
	src.SetBlock(SUNSPEC_MARKER_ADDR, stringToWords("SunS", 2))
	src.SetBlock(SUNSPEC_COMMON_ADDR, []uint16{SUNSPEC_WK_COMMON, 65})
	src.SetBlock(40004, stringToWords("SolarEdge", 16))
	src.SetBlock(40020, stringToWords("SE5000H-RW000BNN4", 16))
	src.SetBlock(40036, stringToWords("", 8))
	src.SetBlock(40044, stringToWords("0004.0019.0024", 8))
	src.SetBlock(40052, stringToWords("7E1234AB", 16))
	src.SetBlock(40068, []uint16{1})
	src.SetBlock(InverterBaseAddress, TestInverterBlock())
	src.SetBlock(InverterBaseAddress+52, []uint16{SUNSPEC_WK_METERS_MIN + 2, 105})
	src.SetBlock(InverterBaseAddress+52+107, []uint16{SUNSPEC_END_BLOCK, 0})
	return src
}

func TestSurvey(t *testing.T) {

	require := require.New(t)

	info, err := Survey(surveySource())
	require.NoError(err)

	require.Equal("SolarEdge", info.Manufacturer)
	require.Equal("SE5000H-RW000BNN4", info.Model)
	require.Equal("0004.0019.0024", info.Version)
	require.Equal("7E1234AB", info.Serial)
	require.Equal([]uint16{1, 103, 203}, info.Models)
	require.True(info.HasInverter())
	require.Equal(1, info.MeterCount())
}

func TestSurveyNotSunSpec(t *testing.T) {

	assert := assert.New(t)

	src := surveySource()
	src.SetBlock(SUNSPEC_MARKER_ADDR, stringToWords("ABCD", 2))

	info, err := Survey(src)
	assert.Nil(info)
	assert.EqualError(err, "could not find a SunSpec device")
}

func TestSurveyReadFailure(t *testing.T) {

	assert := assert.New(t)

	src := surveySource()
	src.Fail(SUNSPEC_MARKER_ADDR, CodeConnectError)

	_, err := Survey(src)
	assert.Equal(CodeConnectError, ErrorCode(err))
}

func TestTestRegisterSourceMissingRegisters(t *testing.T) {

	assert := assert.New(t)

	src := CreateTestRegisterSource()
	_, err := src.ReadBlock(InverterBaseAddress, InverterBlockLength)
	assert.Equal(CodeExceptionError, ErrorCode(err))
	assert.Equal([]uint16{InverterBaseAddress}, src.Reads)
}
