package miner

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/osilexy/minerid-planaria-go/config"
)

// MapiResponse is the signed mAPI envelope
type MapiResponse struct {
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
	Encoding  string `json:"encoding"`
	MimeType  string `json:"mimetype"`
}

// MapiStatusPayload is the tx status payload from mAPI
type MapiStatusPayload struct {
	APIVersion            string `json:"apiVersion"`
	BlockHash             string `json:"blockHash"`
	BlockHeight           uint32 `json:"blockHeight"`
	Confirmations         uint32 `json:"confirmations"`
	MinerID               string `json:"minerId"`
	ResultDescription     string `json:"resultDescription"`
	ReturnResult          string `json:"returnResult"`
	Timestamp             string `json:"timestamp"`
	TxSecondMempoolExpiry int    `json:"txSecondMempoolExpiry"`
}

// MapiFeeQuotePayload is the fee quote payload from mAPI
type MapiFeeQuotePayload struct {
	APIVersion                string          `json:"apiVersion"`
	Timestamp                 string          `json:"timestamp"`
	ExpiryTime                string          `json:"expiryTime"`
	MinerID                   string          `json:"minerId"`
	CurrentHighestBlockHash   string          `json:"currentHighestBlockHash"`
	CurrentHighestBlockHeight uint32          `json:"currentHighestBlockHeight"`
	MinerReputation           interface{}     `json:"minerReputation"`
	Fees                      json.RawMessage `json:"fees"`
}

var client = &http.Client{Timeout: 30 * time.Second}

func request(path string, payload interface{}) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet,
		config.MinerAPIEndpoint+path, strings.NewReader(""))
	if err != nil {
		return err
	}
	req.Header.Add("token", config.MempoolToken)
	req.Header.Add("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return err
	}

	envelope := &MapiResponse{}
	if err = json.Unmarshal(body, envelope); err != nil {
		return err
	}
	return json.Unmarshal([]byte(envelope.Payload), payload)
}

// GetTxBlockHeight checks with a miner that the given txid is in the
// blockchain and returns the height it was mined at
func GetTxBlockHeight(tx string) (uint32, error) {
	payload := &MapiStatusPayload{}
	if err := request("tx/"+tx, payload); err != nil {
		return 0, err
	}
	return payload.BlockHeight, nil
}

// GetFeeQuote returns the miner's current fee quote, which carries its
// mempool expiry policy and chain tip view
func GetFeeQuote() (*MapiFeeQuotePayload, error) {
	payload := &MapiFeeQuotePayload{}
	if err := request("feeQuote", payload); err != nil {
		return nil, err
	}
	return payload, nil
}
