package api

import (
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	apirouter "github.com/mrz1836/go-api-router"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/osilexy/minerid-planaria-go/database"
	"github.com/osilexy/minerid-planaria-go/miner"
)

// chainInfo reports the crawler's view of the chain: the best height a
// verified identity was recorded at and collection counts
func chainInfo(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	conn, ctx, cancel := connect(w, req)
	if conn == nil {
		return
	}
	defer cancel()
	defer func() {
		_ = conn.Disconnect(ctx)
	}()

	best, err := conn.BestHeight()
	if err != nil {
		apirouter.ReturnResponse(w, req, http.StatusExpectationFailed, err.Error())
		return
	}
	docs, err := conn.CountCollectionDocs(database.DocsCollection, bson.M{})
	if err != nil {
		apirouter.ReturnResponse(w, req, http.StatusExpectationFailed, err.Error())
		return
	}
	identities, err := conn.CountCollectionDocs(database.StateCollection, bson.M{})
	if err != nil {
		apirouter.ReturnResponse(w, req, http.StatusExpectationFailed, err.Error())
		return
	}

	apirouter.ReturnResponse(w, req, http.StatusOK, bson.M{
		"bestHeight": best,
		"documents":  docs,
		"identities": identities,
	})
}

// mempoolInfo proxies the miner's current fee quote, which carries its
// mempool policy and chain tip view
func mempoolInfo(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	quote, err := miner.GetFeeQuote()
	if err != nil {
		apirouter.ReturnResponse(w, req, http.StatusBadGateway, err.Error())
		return
	}
	apirouter.ReturnResponse(w, req, http.StatusOK, quote)
}

// blockMinerId returns the verified miner identity recorded for a block
func blockMinerId(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	params := apirouter.GetParams(req)
	height, err := strconv.ParseInt(params.GetString("height"), 10, 32)
	if err != nil {
		apirouter.ReturnResponse(w, req, http.StatusBadRequest, "height must be an integer")
		return
	}

	conn, ctx, cancel := connect(w, req)
	if conn == nil {
		return
	}
	defer cancel()
	defer func() {
		_ = conn.Disconnect(ctx)
	}()

	rec, err := conn.GetRecordByHeight(int32(height))
	if err == mongo.ErrNoDocuments {
		apirouter.ReturnResponse(w, req, http.StatusNotFound, "no miner id recorded for this block")
		return
	}
	if err != nil {
		apirouter.ReturnResponse(w, req, http.StatusExpectationFailed, err.Error())
		return
	}
	apirouter.ReturnResponse(w, req, http.StatusOK, rec)
}

// identityState returns the succession chain holding the given key
func identityState(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	params := apirouter.GetParams(req)
	minerID := params.GetString("minerId")

	conn, ctx, cancel := connect(w, req)
	if conn == nil {
		return
	}
	defer cancel()
	defer func() {
		_ = conn.Disconnect(ctx)
	}()

	state, err := conn.GetIdentityState(minerID)
	if err == mongo.ErrNoDocuments {
		apirouter.ReturnResponse(w, req, http.StatusNotFound, "unknown miner id")
		return
	}
	if err != nil {
		apirouter.ReturnResponse(w, req, http.StatusExpectationFailed, err.Error())
		return
	}
	apirouter.ReturnResponse(w, req, http.StatusOK, state)
}
