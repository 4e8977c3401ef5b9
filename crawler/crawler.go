package crawler

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/bitcoinsv/bsvutil"
	"github.com/tidwall/sjson"

	"github.com/osilexy/minerid-planaria-go/database"
	"github.com/osilexy/minerid-planaria-go/identity"
	"github.com/osilexy/minerid-planaria-go/matter"
	"github.com/osilexy/minerid-planaria-go/minerid"
)

// SyncBlocks scans every block above the given height for miner identity
// documents and returns the new height watermark
func SyncBlocks(height int) (newBlock int) {
	// Setup crawl timer
	crawlStart := time.Now()

	// Block header query, oldest first
	q := []byte(`
		{
			"q": {
				"find": {},
				"sort": { "height": 1 },
				"limit": 100
			}
		}`)

	newBlock = Crawl(q, height)

	diff := time.Now().Sub(crawlStart).Seconds()
	fmt.Printf("MinerId sync complete in %fs\nBlock height: %d\n", diff, newBlock)
	return
}

// Crawl loops over the blocks mined since the given block height and
// records every verified miner identity
func Crawl(query []byte, height int) (newHeight int) {
	newHeight = height

	// Create a timestamped query by applying the "$gt" (greater than) operator with the height
	njson, _ := sjson.Set(string(query), `q.find.height.$gt`, height)

	headers, err := matter.QueryBlockHeaders([]byte(njson))
	if err != nil {
		log.Println(err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, err := database.Connect(ctx)
	if err != nil {
		log.Println(err)
		return
	}
	defer conn.Disconnect(ctx)

	fmt.Printf("Initializing from block %d\n", height)

	for _, header := range headers {
		if int(header.Height) > newHeight {
			newHeight = int(header.Height)
		}

		rec, err := scanCoinbase(&header)
		if err != nil {
			log.Printf("block %d: %v", header.Height, err)
			continue
		}
		if rec == nil {
			// No identity in this block
			continue
		}

		if err = conn.UpsertRecord(rec); err != nil {
			log.Println("Error:", err)
		}
	}

	return
}

// scanCoinbase pulls a block's coinbase transaction and runs the miner
// identity pipeline over its outputs
func scanCoinbase(header *matter.Result) (*identity.Record, error) {
	rawHex, err := matter.GetRawTransaction(header.CoinbaseTxID)
	if err != nil {
		return nil, fmt.Errorf("fetching coinbase %s: %w", header.CoinbaseTxID, err)
	}
	raw, err := hex.DecodeString(rawHex)
	if err != nil {
		return nil, fmt.Errorf("decoding coinbase %s: %w", header.CoinbaseTxID, err)
	}
	tx, err := bsvutil.NewTxFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing coinbase %s: %w", header.CoinbaseTxID, err)
	}

	id := minerid.FindMinerId(tx.MsgTx(), int32(header.Height))
	if id == nil {
		return nil, nil
	}

	return &identity.Record{
		TxID:            header.CoinbaseTxID,
		BlockHeight:     int32(header.Height),
		Document:        id.Document(),
		StaticDocument:  string(id.StaticDocument()),
		StaticSignature: hex.EncodeToString(id.StaticSignature()),
	}, nil
}
