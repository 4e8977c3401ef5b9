package api

import (
	apirouter "github.com/mrz1836/go-api-router"
)

// RegisterRoutes register all the package specific routes
func RegisterRoutes(router *apirouter.Router) {

	// Chain and mempool views
	router.HTTPRouter.GET("/v1/chain/info", router.Request(chainInfo))
	router.HTTPRouter.GET("/v1/mempool/info", router.Request(mempoolInfo))

	// Miner identity lookups
	router.HTTPRouter.GET("/v1/block/:height/minerid", router.Request(blockMinerId))
	router.HTTPRouter.GET("/v1/identity/:minerId", router.Request(identityState))

	// Find
	router.HTTPRouter.GET("/find/:collection", router.Request(bitQuery))
}
