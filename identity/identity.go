package identity

import (
	"github.com/bitcoinschema/go-bitcoin"

	"github.com/osilexy/minerid-planaria-go/minerid"
)

// Record is a verified coinbase document as stored, keyed by the block
// that carried it
type Record struct {
	MongoID         string                   `bson:"_id,omitempty"`
	TxID            string                   `json:"txid" bson:"txid"`
	BlockHeight     int32                    `json:"blockHeight" bson:"blockHeight"`
	Document        minerid.CoinbaseDocument `json:"document" bson:"document"`
	StaticDocument  string                   `json:"staticDocument" bson:"staticDocument"`
	StaticSignature string                   `json:"staticSignature" bson:"staticSignature"`
}

// KeyEntry is one identity key in a miner's succession chain
type KeyEntry struct {
	MinerID   string `json:"minerId" bson:"minerId"`
	Address   string `json:"address" bson:"address"`
	FirstSeen int32  `json:"firstSeen" bson:"firstSeen"`
	LastSeen  int32  `json:"lastSeen" bson:"lastSeen"`
}

// State is the succession-chain state for a miner identity
type State struct {
	MongoID        string     `bson:"_id,omitempty"`
	RootMinerID    string     `json:"rootMinerId" bson:"rootMinerId"`
	CurrentMinerID string     `json:"currentMinerId" bson:"currentMinerId"`
	KeyHistory     []KeyEntry `json:"keyHistory" bson:"keyHistory"`
}

// NewKeyEntry derives the P2PKH address form of a miner id key. A key
// that does not decode to a public key still gets an entry, just without
// an address.
func NewKeyEntry(minerID string, height int32) KeyEntry {
	entry := KeyEntry{
		MinerID:   minerID,
		FirstSeen: height,
		LastSeen:  height,
	}
	if addr, err := bitcoin.GetAddressFromPubKeyString(minerID, true); err == nil {
		entry.Address = addr.EncodeAddress()
	}
	return entry
}
