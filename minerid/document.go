package minerid

import (
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// Versions of the MinerId protocol this node accepts
var supportedVersions = map[string]bool{
	"0.1": true,
	"0.2": true,
}

// VCTx is the validity-check transaction outpoint a coinbase document
// uses as an additional identity anchor
type VCTx struct {
	TxID string `json:"txId" bson:"txId"`
	Vout int    `json:"vout" bson:"vout"`
}

// DataRef points at an auxiliary transaction carrying protocol-tagged
// metadata. Referenced transactions are only recorded here, never fetched.
type DataRef struct {
	BrfcIDs []string `json:"brfcIds" bson:"brfcIds"`
	TxID    string   `json:"txid" bson:"txid"`
	Vout    int      `json:"vout" bson:"vout"`
}

// CoinbaseDocument is a validated static coinbase document, possibly
// extended with dataRefs from a dynamic document in the same output
type CoinbaseDocument struct {
	Version        string          `json:"version" bson:"version"`
	Height         int32           `json:"height" bson:"height"`
	PrevMinerID    string          `json:"prevMinerId" bson:"prevMinerId"`
	PrevMinerIDSig string          `json:"prevMinerIdSig" bson:"prevMinerIdSig"`
	MinerID        string          `json:"minerId" bson:"minerId"`
	VCTx           VCTx            `json:"vctx" bson:"vctx"`
	MinerContact   json.RawMessage `json:"minerContact,omitempty" bson:"minerContact,omitempty"`
	DataRefs       []DataRef       `json:"dataRefs,omitempty" bson:"dataRefs,omitempty"`
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}

// integer returns the value of a JSON number field that must be integral
func integer(v gjson.Result) (int64, bool) {
	if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) {
		return 0, false
	}
	return v.Int(), true
}

// parseStatic checks the required-field contract of a static coinbase
// document and decodes it. Signatures are checked by the caller.
func parseStatic(doc gjson.Result, blockHeight int32) (*CoinbaseDocument, *ScanError) {
	version := doc.Get("version")
	if version.Type != gjson.String {
		return nil, schemaf("version missing or not a string")
	}
	if !supportedVersions[version.String()] {
		return nil, schemaf("unsupported version %q", version.String())
	}

	var docHeight int64
	height := doc.Get("height")
	switch height.Type {
	case gjson.Number:
		h, ok := integer(height)
		if !ok {
			return nil, schemaf("height is not an integer")
		}
		docHeight = h
	case gjson.String:
		h, err := strconv.ParseInt(height.String(), 10, 64)
		if err != nil {
			return nil, schemaf("height string %q is not numeric", height.String())
		}
		docHeight = h
	default:
		return nil, schemaf("height missing or not a number")
	}
	if docHeight != int64(blockHeight) {
		return nil, schemaf("document height %d does not match block height %d", docHeight, blockHeight)
	}

	prevMinerID := doc.Get("prevMinerId")
	if prevMinerID.Type != gjson.String {
		return nil, schemaf("prevMinerId missing or not a string")
	}
	prevMinerIDSig := doc.Get("prevMinerIdSig")
	if prevMinerIDSig.Type != gjson.String {
		return nil, schemaf("prevMinerIdSig missing or not a string")
	}
	minerID := doc.Get("minerId")
	if minerID.Type != gjson.String {
		return nil, schemaf("minerId missing or not a string")
	}

	vctx, serr := parseVCTx(doc.Get("vctx"))
	if serr != nil {
		return nil, serr
	}

	cd := &CoinbaseDocument{
		Version:        version.String(),
		Height:         int32(docHeight),
		PrevMinerID:    prevMinerID.String(),
		PrevMinerIDSig: prevMinerIDSig.String(),
		MinerID:        minerID.String(),
		VCTx:           *vctx,
	}

	// minerContact is opaque: stored verbatim, never validated
	if contact := doc.Get("minerContact"); contact.IsObject() {
		cd.MinerContact = json.RawMessage(contact.Raw)
	}

	return cd, nil
}

func parseVCTx(vctx gjson.Result) (*VCTx, *ScanError) {
	if !vctx.IsObject() {
		return nil, schemaf("vctx missing or not an object")
	}
	txID := vctx.Get("txId")
	if txID.Type != gjson.String {
		return nil, schemaf("vctx.txId missing or not a string")
	}
	if len(txID.String()) != 64 || !isHex(txID.String()) {
		return nil, schemaf("vctx.txId is not a 64 character hex string")
	}
	vout, ok := integer(vctx.Get("vout"))
	if !ok || vout < 0 {
		return nil, schemaf("vctx.vout missing or not a non-negative integer")
	}
	return &VCTx{TxID: txID.String(), Vout: int(vout)}, nil
}

// parseDynamic checks the optional-field contract of a dynamic coinbase
// document and returns the declared dynamicMinerId key. Every field is
// optional except dynamicMinerId, but a field that is present must have
// the same shape as its static counterpart.
func parseDynamic(doc gjson.Result, blockHeight int32) (string, *ScanError) {
	if version := doc.Get("version"); version.Type != gjson.Null {
		if version.Type != gjson.String || !supportedVersions[version.String()] {
			return "", schemaf("version is not a supported version string")
		}
	}

	if height := doc.Get("height"); height.Type != gjson.Null {
		h, ok := integer(height)
		if !ok {
			return "", schemaf("height is not an integer")
		}
		if h != int64(blockHeight) {
			return "", schemaf("document height %d does not match block height %d", h, blockHeight)
		}
	}

	for _, field := range []string{"prevMinerId", "prevMinerIdSig", "minerId"} {
		if v := doc.Get(field); v.Type != gjson.Null && v.Type != gjson.String {
			return "", schemaf("%s is not a string", field)
		}
	}

	dynamicMinerID := doc.Get("dynamicMinerId")
	if dynamicMinerID.Type != gjson.String {
		return "", schemaf("dynamicMinerId missing or not a string")
	}

	if vctx := doc.Get("vctx"); vctx.Type != gjson.Null {
		if _, serr := parseVCTx(vctx); serr != nil {
			return "", serr
		}
	}

	return dynamicMinerID.String(), nil
}

// parseDataRefs extracts the optional dataRefs list from a document. A
// present dataRefs field must be an object holding a refs array, and any
// malformed entry rejects the whole document.
func parseDataRefs(doc gjson.Result) ([]DataRef, *ScanError) {
	dataRefs := doc.Get("dataRefs")
	if dataRefs.Type == gjson.Null {
		return nil, nil
	}
	if !dataRefs.IsObject() {
		return nil, schemaf("dataRefs is not an object")
	}
	refs := dataRefs.Get("refs")
	if !refs.IsArray() {
		return nil, schemaf("dataRefs.refs missing or not an array")
	}

	var out []DataRef
	for _, entry := range refs.Array() {
		brfcIDs := entry.Get("brfcIds")
		if !brfcIDs.IsArray() {
			return nil, schemaf("dataRefs entry brfcIds missing or not an array")
		}
		var ids []string
		for _, id := range brfcIDs.Array() {
			if id.Type != gjson.String {
				return nil, schemaf("dataRefs entry brfcIds holds a non-string member")
			}
			ids = append(ids, id.String())
		}
		txid := entry.Get("txid")
		if txid.Type != gjson.String || !isHex(txid.String()) {
			return nil, schemaf("dataRefs entry txid missing or not a hex string")
		}
		vout, ok := integer(entry.Get("vout"))
		if !ok {
			return nil, schemaf("dataRefs entry vout missing or not an integer")
		}
		out = append(out, DataRef{BrfcIDs: ids, TxID: txid.String(), Vout: int(vout)})
	}
	return out, nil
}
