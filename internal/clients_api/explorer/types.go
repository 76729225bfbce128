package explorer

import (
	"encoding/json"
	"fmt"
	"strings"

	"holder-map/internal/infra/retry"
)

// APIError is an explorer reply with status "0" that is not an empty result.
type APIError struct {
	Message string
	Result  string
}

func (e *APIError) Error() string {
	if e.Result != "" {
		return fmt.Sprintf("explorer error: %s: %s", e.Message, e.Result)
	}
	return "explorer error: " + e.Message
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

var emptyResult = json.RawMessage("[]")

func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode explorer response: %w", err)
	}
	// Some endpoints (proxy module) reply without a status field.
	if env.Status == "" || env.Status == "1" {
		return env.Result, nil
	}

	var text string
	_ = json.Unmarshal(env.Result, &text)
	msg := strings.ToLower(env.Message + " " + text)
	switch {
	case strings.Contains(msg, "no transactions found"), strings.Contains(msg, "no records found"),
		strings.Contains(msg, "no token transfers found"):
		return emptyResult, nil
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "max calls per sec"):
		return nil, retry.Transient(&APIError{Message: env.Message, Result: text})
	default:
		return nil, &APIError{Message: env.Message, Result: text}
	}
}

type tokenTxRecord struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	TokenDecimal    string `json:"tokenDecimal"`
	LogIndex        string `json:"logIndex"`
	ContractAddress string `json:"contractAddress"`
}

type nativeTxRecord struct {
	TimeStamp string `json:"timeStamp"`
	Hash      string `json:"hash"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
	IsError   string `json:"isError"`
}

type contractCreation struct {
	ContractAddress string `json:"contractAddress"`
	ContractCreator string `json:"contractCreator"`
	TxHash          string `json:"txHash"`
}
