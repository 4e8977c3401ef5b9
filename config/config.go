package config

import (
	"os"
	"strconv"
)

// Runtime settings, loaded from the environment at startup
var (
	// FromBlock is the height the crawler starts scanning from
	FromBlock = envInt("MINERID_FROM_BLOCK", 700000)

	// ListenAddr is the address the query API binds to
	ListenAddr = env("MINERID_LISTEN_ADDR", ":8888")

	// MongoURL is the connection string for the state database
	MongoURL = env("MINERID_MONGO_URL", "mongodb://localhost:27017")

	// MinerAPIEndpoint is the mAPI base URL
	// e.g. "https://merchantapi.taal.com/mapi/"
	MinerAPIEndpoint = env("MINER_API_ENDPOINT", "https://merchantapi.taal.com/mapi/")

	// MatterAPIEndpoint is the block/tx data source base URL
	MatterAPIEndpoint = env("MATTER_API_ENDPOINT", "https://txdb.mattercloud.io/api/v1/")

	// MatterToken authenticates block data source requests
	MatterToken = os.Getenv("MATTER_TOKEN")

	// MempoolToken authenticates mAPI requests
	MempoolToken = os.Getenv("MEMPOOL_TOKEN")
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
