package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/osilexy/minerid-planaria-go/config"
	"github.com/osilexy/minerid-planaria-go/crawler"
	"github.com/osilexy/minerid-planaria-go/router"
	"github.com/osilexy/minerid-planaria-go/state"
)

func syncWorker(currentBlock int) {
	if currentBlock != config.FromBlock {
		time.Sleep(30 * time.Second)
	}

	// crawl
	newBlock := crawler.SyncBlocks(currentBlock)

	// if we've recorded some new identities, fold them into the state
	if newBlock > currentBlock {
		newBlock = state.SyncState(newBlock)
	} else {
		fmt.Println("everything up-to-date")
	}

	go syncWorker(newBlock)
}

func main() {

	// blocks only the first time, then runs as a go func
	syncWorker(config.FromBlock)

	// First time through we start the server once synchronized
	startServer()
}

func startServer() {
	// Load the server
	log.Println("starting Go web server on http://localhost" + config.ListenAddr)
	srv := &http.Server{
		Addr:         config.ListenAddr,
		Handler:      router.Handlers(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	log.Fatalln(srv.ListenAndServe())
}
