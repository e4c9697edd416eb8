package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapCandlesRenamesMinMax(t *testing.T) {
	win := mapCandles([]wireCandle{
		{From: 100, Open: 1.10, Close: 1.12, Min: 1.09, Max: 1.13, Volume: 500},
		{From: 160, Open: 1.12, Close: 1.11, Min: 1.105, Max: 1.125, Volume: 320},
	})

	require.Len(t, win, 2)
	assert.Equal(t, 1.09, win[0].Low)
	assert.Equal(t, 1.13, win[0].High)
	assert.Equal(t, 1.10, win[0].Open)
	assert.Equal(t, 1.12, win[0].Close)
	assert.Equal(t, int64(100), win[0].Time.Unix())
	assert.True(t, win[0].Time.Before(win[1].Time))
}

func TestUnmarshalFrameRoutesByRequestID(t *testing.T) {
	raw := []byte(`{"name":"get-candles","request_id":"7","msg":{"candles":[{"from":1,"open":2,"close":3,"min":1.5,"max":3.5,"volume":10}]}}`)
	frame, err := unmarshalFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, "get-candles", frame.Name)
	assert.Equal(t, "7", frame.RequestID)
	assert.NotEmpty(t, frame.Msg)
}

func TestMarshalFrameEnvelope(t *testing.T) {
	data, err := marshalFrame(outFrame{
		Name:      "sendMessage",
		RequestID: "1",
		Msg:       requestBody{Name: "get-commissions", Version: "2.0", Body: map[string]any{}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"request_id":"1"`)
	assert.Contains(t, string(data), `"get-commissions"`)
}
