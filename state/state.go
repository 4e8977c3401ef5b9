package state

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/osilexy/minerid-planaria-go/database"
	"github.com/osilexy/minerid-planaria-go/identity"
)

// Chains indexes succession chains by every key that ever appeared in
// them, so a record naming either the previous or the current key finds
// its chain.
type Chains struct {
	byKey  map[string]*identity.State
	states []*identity.State
}

// NewChains returns an empty chain index
func NewChains() *Chains {
	return &Chains{byKey: map[string]*identity.State{}}
}

// States returns every chain built so far
func (c *Chains) States() []*identity.State {
	return c.states
}

// Apply folds one verified coinbase document into the succession chains.
// A record whose prevMinerId is already tracked extends that chain; a
// record rotating to a new key appends it; anything else roots a new
// chain at the record's prevMinerId.
func (c *Chains) Apply(rec *identity.Record) {
	doc := rec.Document
	chain, ok := c.byKey[doc.PrevMinerID]
	if !ok {
		chain = &identity.State{
			RootMinerID: doc.PrevMinerID,
		}
		c.byKey[doc.PrevMinerID] = chain
		c.states = append(c.states, chain)
	}

	if chain.CurrentMinerID != doc.MinerID {
		chain.KeyHistory = append(chain.KeyHistory, identity.NewKeyEntry(doc.MinerID, rec.BlockHeight))
		chain.CurrentMinerID = doc.MinerID
		c.byKey[doc.MinerID] = chain
		return
	}

	// Same key re-asserted in a later block
	last := &chain.KeyHistory[len(chain.KeyHistory)-1]
	if rec.BlockHeight < last.FirstSeen {
		last.FirstSeen = rec.BlockHeight
	}
	if rec.BlockHeight > last.LastSeen {
		last.LastSeen = rec.BlockHeight
	}
}

// Build folds every stored coinbase document into succession chains and
// writes them back to the state collection
func Build() {
	var numPerPass int64 = 100

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := database.Connect(ctx)
	if err != nil {
		return
	}
	defer conn.Disconnect(ctx)

	numRecords, err := conn.CountCollectionDocs(database.DocsCollection, bson.M{})
	if err != nil {
		log.Println("Error", err)
	}

	chains := NewChains()
	for i := int64(0); i < (numRecords/numPerPass)+1; i++ {
		log.Println("Page", i)
		records, err := conn.GetRecords(numPerPass, i*numPerPass)
		if err != nil {
			log.Println("Error:", err)
			return
		}
		for j := range records {
			chains.Apply(&records[j])
		}
	}

	for _, chain := range chains.States() {
		if err = conn.UpsertIdentityState(chain); err != nil {
			log.Println("Error:", err)
		}
	}
}

// SyncState rebuilds the succession chains and returns the height the
// caller should continue from
func SyncState(currentBlock int) int {
	Build()
	return currentBlock
}
