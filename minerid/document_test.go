package minerid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func validStaticJSON(overrides string) string {
	doc := fmt.Sprintf(`{"version":"0.2","height":700000,"prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":%q,"vout":0}`, testVctxTxID)
	if overrides != "" {
		doc += "," + overrides
	}
	return doc + "}"
}

func TestParseStaticValid(t *testing.T) {
	cd, serr := parseStatic(gjson.Parse(validStaticJSON("")), testHeight)
	require.Nil(t, serr)
	require.Equal(t, "0.2", cd.Version)
	require.Equal(t, testHeight, cd.Height)
	require.Equal(t, "02aa", cd.PrevMinerID)
	require.Equal(t, "3044", cd.PrevMinerIDSig)
	require.Equal(t, "03bb", cd.MinerID)
	require.Equal(t, testVctxTxID, cd.VCTx.TxID)
	require.Equal(t, 0, cd.VCTx.Vout)
	require.Empty(t, cd.MinerContact)
}

func TestParseStaticRejects(t *testing.T) {
	cases := map[string]string{
		"missing version":     `{"height":700000,"prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `","vout":0}}`,
		"numeric version":     `{"version":0.2,"height":700000,"prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `","vout":0}}`,
		"unsupported version": `{"version":"1.0","height":700000,"prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `","vout":0}}`,
		"missing height":      `{"version":"0.2","prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `","vout":0}}`,
		"fractional height":   `{"version":"0.2","height":700000.5,"prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `","vout":0}}`,
		"non numeric height":  `{"version":"0.2","height":"seven","prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `","vout":0}}`,
		"missing prevMinerId": `{"version":"0.2","height":700000,"prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `","vout":0}}`,
		"missing minerId":     `{"version":"0.2","height":700000,"prevMinerId":"02aa","prevMinerIdSig":"3044","vctx":{"txId":"` + testVctxTxID + `","vout":0}}`,
		"missing vctx":        `{"version":"0.2","height":700000,"prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb"}`,
		"vctx not object":     `{"version":"0.2","height":700000,"prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":"anchor"}`,
		"short vctx txId":     `{"version":"0.2","height":700000,"prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"abcd","vout":0}}`,
		"non hex vctx txId":   `{"version":"0.2","height":700000,"prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + "zz" + testVctxTxID[2:] + `","vout":0}}`,
		"missing vctx vout":   `{"version":"0.2","height":700000,"prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `"}}`,
		"negative vctx vout":  `{"version":"0.2","height":700000,"prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `","vout":-1}}`,
		"numeric prevMinerId": `{"version":"0.2","height":700000,"prevMinerId":42,"prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `","vout":0}}`,
		"null prevMinerIdSig": `{"version":"0.2","height":700000,"prevMinerId":"02aa","prevMinerIdSig":null,"minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `","vout":0}}`,
	}

	for name, doc := range cases {
		_, serr := parseStatic(gjson.Parse(doc), testHeight)
		require.NotNil(t, serr, name)
		require.Equal(t, KindSchema, serr.Kind, name)
	}
}

func TestParseStaticHeightMismatch(t *testing.T) {
	_, serr := parseStatic(gjson.Parse(validStaticJSON("")), testHeight+1)
	require.NotNil(t, serr)
	require.Equal(t, KindSchema, serr.Kind)
}

// Heights outside int32 range must mismatch rather than wrap
func TestParseStaticHeightDoesNotWrap(t *testing.T) {
	for name, doc := range map[string]string{
		"number form": `{"version":"0.2","height":4295667296,"prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `","vout":0}}`,
		"string form": `{"version":"0.2","height":"4295667296","prevMinerId":"02aa","prevMinerIdSig":"3044","minerId":"03bb","vctx":{"txId":"` + testVctxTxID + `","vout":0}}`,
	} {
		_, serr := parseStatic(gjson.Parse(doc), testHeight)
		require.NotNil(t, serr, name)
		require.Equal(t, KindSchema, serr.Kind, name)
	}
}

func TestParseDynamicMinimal(t *testing.T) {
	key, serr := parseDynamic(gjson.Parse(`{"dynamicMinerId":"03cc"}`), testHeight)
	require.Nil(t, serr)
	require.Equal(t, "03cc", key)
}

func TestParseDynamicOptionalFieldsChecked(t *testing.T) {
	cases := map[string]string{
		"missing dynamicMinerId": `{"minerId":"03bb"}`,
		"unsupported version":    `{"dynamicMinerId":"03cc","version":"9.9"}`,
		"height mismatch":        `{"dynamicMinerId":"03cc","height":699999}`,
		"height beyond int32":    `{"dynamicMinerId":"03cc","height":4295667296}`,
		"height as string":       `{"dynamicMinerId":"03cc","height":"700000"}`,
		"numeric minerId":        `{"dynamicMinerId":"03cc","minerId":7}`,
		"vctx missing vout":      `{"dynamicMinerId":"03cc","vctx":{"txId":"` + testVctxTxID + `"}}`,
	}
	for name, doc := range cases {
		_, serr := parseDynamic(gjson.Parse(doc), testHeight)
		require.NotNil(t, serr, name)
	}

	// Present well-formed optional fields pass
	ok := fmt.Sprintf(`{"dynamicMinerId":"03cc","version":"0.2","height":700000,"minerId":"03bb","vctx":{"txId":%q,"vout":3}}`, testVctxTxID)
	key, serr := parseDynamic(gjson.Parse(ok), testHeight)
	require.Nil(t, serr)
	require.Equal(t, "03cc", key)
}

func TestParseDataRefsAbsent(t *testing.T) {
	refs, serr := parseDataRefs(gjson.Parse(`{"version":"0.2"}`))
	require.Nil(t, serr)
	require.Nil(t, refs)
}

func TestParseDataRefsValid(t *testing.T) {
	doc := fmt.Sprintf(`{"dataRefs":{"refs":[{"brfcIds":["a","b"],"txid":%q,"vout":0},{"brfcIds":[],"txid":%q,"vout":4}]}}`, testVctxTxID, otherTxID)
	refs, serr := parseDataRefs(gjson.Parse(doc))
	require.Nil(t, serr)
	require.Len(t, refs, 2)
	require.Equal(t, []string{"a", "b"}, refs[0].BrfcIDs)
	require.Equal(t, testVctxTxID, refs[0].TxID)
	require.Equal(t, 4, refs[1].Vout)
}

func TestParseDataRefsRejects(t *testing.T) {
	cases := map[string]string{
		"not an object":     `{"dataRefs":[1,2]}`,
		"missing refs":      `{"dataRefs":{}}`,
		"refs not array":    `{"dataRefs":{"refs":{}}}`,
		"brfcIds missing":   fmt.Sprintf(`{"dataRefs":{"refs":[{"txid":%q,"vout":0}]}}`, testVctxTxID),
		"brfcIds not array": fmt.Sprintf(`{"dataRefs":{"refs":[{"brfcIds":"a","txid":%q,"vout":0}]}}`, testVctxTxID),
		"non-string brfcId": fmt.Sprintf(`{"dataRefs":{"refs":[{"brfcIds":[1],"txid":%q,"vout":0}]}}`, testVctxTxID),
		"missing txid":      `{"dataRefs":{"refs":[{"brfcIds":["a"],"vout":0}]}}`,
		"non hex txid":      `{"dataRefs":{"refs":[{"brfcIds":["a"],"txid":"xyz","vout":0}]}}`,
		"missing vout":      fmt.Sprintf(`{"dataRefs":{"refs":[{"brfcIds":["a"],"txid":%q}]}}`, testVctxTxID),
		"fractional vout":   fmt.Sprintf(`{"dataRefs":{"refs":[{"brfcIds":["a"],"txid":%q,"vout":1.5}]}}`, testVctxTxID),
	}
	for name, doc := range cases {
		_, serr := parseDataRefs(gjson.Parse(doc))
		require.NotNil(t, serr, name)
		require.Equal(t, KindSchema, serr.Kind, name)
	}
}
