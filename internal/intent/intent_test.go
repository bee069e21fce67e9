package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySessionSwitch(t *testing.T) {
	cases := []struct {
		message string
		name    string
	}{
		{"Load the BTC 5 Minute session", "BTC 5 Minute"},
		{"load the BTC 5 Minute session", "BTC 5 Minute"},
		{"Switch to Scalping", "Scalping"},
		{"switch to the ETH Swing session", "ETH Swing"},
		{"Open Futures Q3", "Futures Q3"},
		{"please load the Morning Routine session", "Morning Routine"},
		{"  Load London Open  ", "London Open"},
	}
	for _, tc := range cases {
		got := Classify(tc.message)
		assert.Equal(t, SessionSwitch, got.Kind, "message: %s", tc.message)
		assert.Equal(t, tc.name, got.SessionName, "message: %s", tc.message)
	}
}

func TestClassifyGeneralQuery(t *testing.T) {
	cases := []string{
		"Can you load my recent trades",
		"What is my win rate?",
		"How much margin did I use last week",
		"I want to open a position on BTC eventually, thoughts?",
		"why did the switch to shorts hurt my ROI",
		"",
		"   ",
	}
	for _, msg := range cases {
		got := Classify(msg)
		assert.Equal(t, GeneralQuery, got.Kind, "message: %s", msg)
		assert.Empty(t, got.SessionName, "message: %s", msg)
	}
}

func TestClassifyPreservesNameVerbatim(t *testing.T) {
	got := Classify("load BTC/USDT - 5m!")
	assert.Equal(t, SessionSwitch, got.Kind)
	assert.Equal(t, "BTC/USDT - 5m!", got.SessionName)
}
