package scores

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeAndVerify(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		decoded string
		wantErr bool
	}{
		{name: "15 kills 3 deaths", code: "WYAR-40", decoded: "15|3"},
		{name: "zero score", code: "QAQ-77", decoded: "0|0"},
		{name: "one kill no deaths", code: "WAQ-84", decoded: "1|0"},
		{name: "no kills one death", code: "QAW-84", decoded: "0|1"},
		{name: "25 kills 8 deaths", code: "EYAO-82", decoded: "25|8"},
		{name: "triple digit kills", code: "WQQAWQ-91", decoded: "100|10"},
		{name: "missing separator", code: "INVALID", wantErr: true},
		{name: "wrong checksum", code: "WYAR-999", wantErr: true},
		{name: "unknown letters", code: "XZC-123", wantErr: true},
		{name: "no deaths component", code: "WY-42", wantErr: true},
		{name: "empty string", code: "", wantErr: true},
		{name: "empty checksum", code: "WYAR-", wantErr: true},
		{name: "double separator in payload", code: "WAAW-161", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeAndVerify(tt.code)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.decoded, decoded)
		})
	}
}

func TestParseScoreData(t *testing.T) {
	tests := []struct {
		name    string
		decoded string
		kills   int
		deaths  int
		kd      float64
		wantErr bool
	}{
		{name: "normal ratio", decoded: "15|3", kills: 15, deaths: 3, kd: 5.0},
		{name: "zero deaths uses kills as ratio", decoded: "12|0", kills: 12, deaths: 0, kd: 12.0},
		{name: "zero everything", decoded: "0|0", kills: 0, deaths: 0, kd: 0},
		{name: "missing separator", decoded: "153", wantErr: true},
		{name: "non numeric kills", decoded: "+|3", wantErr: true},
		{name: "unrealistic kills", decoded: "1000000|1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ParseScoreData(tt.decoded)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.kills, data.Kills)
			assert.Equal(t, tt.deaths, data.Deaths)
			assert.InDelta(t, tt.kd, data.KDRatio, 1e-9)
		})
	}
}

func TestComputeChecksum(t *testing.T) {
	// Each character contributes its charset position times seven, mod 100
	assert.Equal(t, "40", computeChecksum("15|3"))
	assert.Equal(t, "77", computeChecksum("0|0"))
	assert.Equal(t, "0", computeChecksum(""))
}
