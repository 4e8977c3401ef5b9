// Package minerid locates and verifies MinerId coinbase documents: signed
// JSON identity claims that block producers embed in a coinbase output,
// chaining each identity key to its predecessor.
package minerid

import (
	"encoding/hex"
	"io"
	"log"

	"github.com/bitcoinsv/bsvd/wire"
	"github.com/tidwall/gjson"

	"github.com/osilexy/minerid-planaria-go/script"
)

// MinerId is a fully verified miner identity found in a coinbase
// transaction. It keeps the exact static document bytes and signature
// because a dynamic document signs over them verbatim. Values are never
// mutated once returned.
type MinerId struct {
	doc             CoinbaseDocument
	staticDocument  []byte
	staticSignature []byte
}

// Document returns the verified coinbase document
func (m *MinerId) Document() CoinbaseDocument {
	return m.doc
}

// StaticDocument returns the exact JSON bytes the static self-signature
// was verified against
func (m *MinerId) StaticDocument() []byte {
	return m.staticDocument
}

// StaticSignature returns the raw static self-signature bytes
func (m *MinerId) StaticSignature() []byte {
	return m.staticSignature
}

// verifyStatic runs the full static trust chain over the received
// document bytes: schema, self-signature, continuity signature, then
// dataRefs. A MinerId is only constructed once every step has passed.
func verifyStatic(rawDoc []byte, rawSig []byte, blockHeight int32) (*MinerId, *ScanError) {
	if !gjson.ValidBytes(rawDoc) {
		return nil, structuralf("cannot parse coinbase document")
	}
	doc := gjson.ParseBytes(rawDoc)

	cd, serr := parseStatic(doc, blockHeight)
	if serr != nil {
		return nil, serr
	}

	minerKey, err := hex.DecodeString(cd.MinerID)
	if err != nil || !Verify(rawDoc, minerKey, rawSig) {
		return nil, signaturef("static document signature is invalid")
	}

	msg, err := continuityMessage(cd)
	if err != nil {
		return nil, signaturef("cannot build continuity message: %v", err)
	}
	prevKey, err := hex.DecodeString(cd.PrevMinerID)
	if err != nil {
		return nil, signaturef("prevMinerId is not hex")
	}
	prevSig, err := hex.DecodeString(cd.PrevMinerIDSig)
	if err != nil {
		return nil, signaturef("prevMinerIdSig is not hex")
	}
	if !Verify(msg, prevKey, prevSig) {
		return nil, signaturef("previous miner id signature is invalid")
	}

	refs, serr := parseDataRefs(doc)
	if serr != nil {
		return nil, serr
	}
	cd.DataRefs = refs

	return &MinerId{
		doc:             *cd,
		staticDocument:  append([]byte(nil), rawDoc...),
		staticSignature: append([]byte(nil), rawSig...),
	}, nil
}

// extendDynamic verifies a dynamic document against an already verified
// static identity and returns a new identity carrying any extensions.
// The receiver is left untouched; on any failure the caller discards the
// whole candidate, static success included.
func (m *MinerId) extendDynamic(rawDoc []byte, rawSig []byte, blockHeight int32) (*MinerId, *ScanError) {
	if !gjson.ValidBytes(rawDoc) {
		return nil, structuralf("cannot parse dynamic coinbase document")
	}
	doc := gjson.ParseBytes(rawDoc)

	dynamicKeyHex, serr := parseDynamic(doc, blockHeight)
	if serr != nil {
		return nil, serr
	}

	// The dynamic key signs over the static document, its signature and
	// the dynamic document in that order, binding all three together.
	msg := make([]byte, 0, len(m.staticDocument)+len(m.staticSignature)+len(rawDoc))
	msg = append(msg, m.staticDocument...)
	msg = append(msg, m.staticSignature...)
	msg = append(msg, rawDoc...)

	dynamicKey, err := hex.DecodeString(dynamicKeyHex)
	if err != nil || !Verify(msg, dynamicKey, rawSig) {
		return nil, signaturef("dynamic miner id signature is invalid")
	}

	extended := &MinerId{
		doc:             m.doc,
		staticDocument:  m.staticDocument,
		staticSignature: m.staticSignature,
	}

	// The static document's dataRefs take precedence; the dynamic list
	// is only attached when none were set
	if extended.doc.DataRefs == nil {
		refs, serr := parseDataRefs(doc)
		if serr != nil {
			return nil, serr
		}
		extended.doc.DataRefs = refs
	}

	return extended, nil
}

// FindMinerId scans the outputs of a coinbase transaction for a MinerId
// marker and returns the first fully verified identity, or nil when no
// output holds one. Failed candidates are logged and skipped; a dynamic
// verification failure discards the candidate's static success as well.
func FindMinerId(tx *wire.MsgTx, blockHeight int32) *MinerId {
	txid := tx.TxHash().String()

	for i, out := range tx.TxOut {
		if !script.IsMinerId(out.PkScript) {
			continue
		}

		r := script.NewReader(out.PkScript[script.PrefixLen:])

		rawDoc, err := r.Next()
		if err != nil {
			log.Printf("minerid: failed to extract static document from tx %s output %d: %v", txid, i, err)
			continue
		}
		if len(rawDoc) == 0 {
			log.Printf("minerid: empty static document in tx %s output %d", txid, i)
			continue
		}

		rawSig, err := r.Next()
		if err != nil {
			log.Printf("minerid: failed to extract static signature from tx %s output %d: %v", txid, i, err)
			continue
		}
		if len(rawSig) == 0 {
			log.Printf("minerid: empty static signature in tx %s output %d", txid, i)
			continue
		}

		id, serr := verifyStatic(rawDoc, rawSig, blockHeight)
		if serr != nil {
			log.Printf("minerid: rejected static document in tx %s output %d: %v", txid, i, serr)
			continue
		}

		// Static document verified. A dynamic document may follow; a
		// clean end of script makes the static identity final.
		rawDyn, err := r.Next()
		if err == io.EOF {
			return id
		}
		if err != nil {
			log.Printf("minerid: failed to extract dynamic document from tx %s output %d: %v", txid, i, err)
			continue
		}

		rawDynSig, err := r.Next()
		if err != nil {
			log.Printf("minerid: failed to extract dynamic signature from tx %s output %d: %v", txid, i, err)
			continue
		}

		extended, serr := id.extendDynamic(rawDyn, rawDynSig, blockHeight)
		if serr != nil {
			// All or nothing: the static success is discarded too
			log.Printf("minerid: rejected dynamic document in tx %s output %d: %v", txid, i, serr)
			continue
		}
		return extended
	}

	return nil
}
