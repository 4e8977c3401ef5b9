package matter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/osilexy/minerid-planaria-go/config"
)

// Result is a block header in the MatterCloud block result
type Result struct {
	Height        uint64 `json:"height"`
	Hash          string `json:"hash"`
	Size          int    `json:"size"`
	Version       int    `json:"version"`
	MerkleRoot    string `json:"merkleroot"`
	Time          uint64 `json:"time"`
	Nonce         uint64 `json:"nonce"`
	Bits          string `json:"bits"`
	Difficulty    string `json:"difficulty"`
	NextBlockHash string `json:"nextblockhash"`
	CoinbaseInfo  string `json:"coinbaseinfo"`
	CoinbaseTxID  string `json:"coinbasetxid"`
	Chainwork     string `json:"chainwork"`
}

// BlockResult is the block header response envelope
type BlockResult struct {
	Status int      `json:"status"`
	Errors []string `json:"errors"`
	Result []Result `json:"result"`
}

// RawTxResult is the raw transaction response envelope
type RawTxResult struct {
	Status int      `json:"status"`
	Errors []string `json:"errors"`
	Result []struct {
		RawTx string `json:"rawtx"`
	} `json:"result"`
}

var client = &http.Client{Timeout: 30 * time.Second}

func get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, config.MatterAPIEndpoint+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("token", config.MatterToken)

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
	return json.Unmarshal(body, out)
}

// LatestBlock returns the newest block header the data source knows about
func LatestBlock() (*Result, error) {
	response := &BlockResult{}
	if err := get("blockheader/", response); err != nil {
		return nil, err
	}
	if len(response.Result) == 0 {
		return nil, errors.New("error getting response data")
	}
	return &response.Result[0], nil
}

// QueryBlockHeaders posts a block header query and returns the matches.
// The query is a bitquery-style JSON document built by the caller.
func QueryBlockHeaders(query []byte) ([]Result, error) {
	req, err := http.NewRequest(http.MethodPost, config.MatterAPIEndpoint+"blockheader/query", bytes.NewBuffer(query))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("token", config.MatterToken)

	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	response := &BlockResult{}
	if err = json.Unmarshal(body, response); err != nil {
		return nil, err
	}
	if response.Status != http.StatusOK {
		return nil, fmt.Errorf("block header query failed: %v", response.Errors)
	}
	return response.Result, nil
}

// GetRawTransaction returns the raw hex of a transaction
func GetRawTransaction(txid string) (string, error) {
	response := &RawTxResult{}
	if err := get("rawtx/"+txid, response); err != nil {
		return "", err
	}
	if len(response.Result) == 0 {
		return "", fmt.Errorf("no raw tx returned for %s", txid)
	}
	return response.Result[0].RawTx, nil
}
