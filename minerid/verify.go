package minerid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bitcoinsv/bsvd/bsvec"
)

// Verify checks that signature is a valid secp256k1 ECDSA signature by
// pubKey over the SHA-256 digest of message. It fails closed: malformed
// key or signature material simply yields false.
func Verify(message []byte, pubKey []byte, signature []byte) bool {
	digest := sha256.Sum256(message)

	pk, err := bsvec.ParsePubKey(pubKey, bsvec.S256())
	if err != nil {
		return false
	}
	sig, err := bsvec.ParseDERSignature(signature, bsvec.S256())
	if err != nil {
		return false
	}
	return sig.Verify(digest[:], pk)
}

// continuityMessage builds the message the previous miner id signed to
// authorize succession to the new key. The construction is version
// dependent: "0.1" signs the concatenated hex text of the three fields,
// "0.2" signs the concatenation of their decoded bytes.
func continuityMessage(cd *CoinbaseDocument) ([]byte, error) {
	switch cd.Version {
	case "0.1":
		return []byte(cd.PrevMinerID + cd.MinerID + cd.VCTx.TxID), nil
	case "0.2":
		var msg []byte
		for _, field := range []string{cd.PrevMinerID, cd.MinerID, cd.VCTx.TxID} {
			raw, err := hex.DecodeString(field)
			if err != nil {
				return nil, fmt.Errorf("minerid: field %q is not hex: %w", field, err)
			}
			msg = append(msg, raw...)
		}
		return msg, nil
	}
	return nil, fmt.Errorf("minerid: unsupported version %q", cd.Version)
}
