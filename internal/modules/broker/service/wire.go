package service

import (
	"encoding/json"

	"github.com/bytedance/sonic"
)

// Протокол брокера: один авторизованный WebSocket, конверты sendMessage
// с корреляцией по request_id плюс пуш-события (option-closed) без него.

type outFrame struct {
	Name      string      `json:"name"`
	RequestID string      `json:"request_id,omitempty"`
	Msg       interface{} `json:"msg"`
}

type inFrame struct {
	Name      string          `json:"name"`
	RequestID string          `json:"request_id"`
	Msg       json.RawMessage `json:"msg"`
	Status    int             `json:"status,omitempty"`
}

type requestBody struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Body    interface{} `json:"body"`
}

type loginResponse struct {
	Code string `json:"code"`
	SSID string `json:"ssid"`
}

// Свеча в полях площадки: min/max вместо low/high.
type wireCandle struct {
	From   int64   `json:"from"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Volume float64 `json:"volume"`
}

type candlesMsg struct {
	Candles []wireCandle `json:"candles"`
}

type commissionsMsg struct {
	Commissions []struct {
		Active     string  `json:"active"`
		Commission float64 `json:"commission"`
		Open       bool    `json:"open"`
	} `json:"commissions"`
}

type buyMsg struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type optionClosedMsg struct {
	ID     int64  `json:"id"`
	Result string `json:"result"` // win | loose
}

func marshalFrame(f outFrame) ([]byte, error) { return sonic.Marshal(f) }

func unmarshalFrame(data []byte) (inFrame, error) {
	var f inFrame
	err := sonic.Unmarshal(data, &f)
	return f, err
}
