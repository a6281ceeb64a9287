package models

import (
	"encoding/json"
	"strings"
)

// GenesisHeight is the height of the first block of every supported network.
const GenesisHeight int64 = 1

// Block represents a blockchain block as returned by the indexer.
// A nil PreviousBlock marks genesis.
type Block struct {
	Height        int64   `json:"height"`
	Hash          string  `json:"hash"`
	Time          int64   `json:"time"`
	PreviousBlock *string `json:"previous_block"`
}

// IsGenesis reports whether the block has no predecessor.
func (b *Block) IsGenesis() bool {
	return b.PreviousBlock == nil || *b.PreviousBlock == ""
}

// MetadataItem is one labeled metadata entry attached to a transaction.
type MetadataItem struct {
	Label        string          `json:"label"`
	JSONMetadata json.RawMessage `json:"json_metadata"`
}

// LabelEntry is one row of a label search page.
type LabelEntry struct {
	TxHash       string          `json:"tx_hash"`
	JSONMetadata json.RawMessage `json:"json_metadata"`
}

// UTXO is the participant part of a transaction input or output.
type UTXO struct {
	Address     string `json:"address"`
	PaymentCred string `json:"payment_cred"`
}

// TxUTXOs holds the inputs and outputs of a transaction.
type TxUTXOs struct {
	Inputs  []UTXO `json:"inputs"`
	Outputs []UTXO `json:"outputs"`
}

// MetadataRecord is the flattened text of one labeled metadata entry.
type MetadataRecord struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// HasContent reports whether the record carries non-whitespace text.
func (m MetadataRecord) HasContent() bool {
	return strings.TrimSpace(m.Text) != ""
}

// TxRef is a transaction hash tagged with the time of its block.
type TxRef struct {
	Hash      string
	BlockTime int64
}

// Transaction is a harvested transaction with its extracted metadata.
// BlockTime is zero when the harvest strategy does not know it (label search).
type Transaction struct {
	Hash      string           `json:"hash"`
	BlockTime int64            `json:"block_time"`
	Metadata  []MetadataRecord `json:"metadata"`
}

// ResultSet is an ordered, hash-unique sequence of transactions, newest first.
type ResultSet []Transaction

// Hashes returns the set of hashes present in the result set.
func (rs ResultSet) Hashes() map[string]struct{} {
	hashes := make(map[string]struct{}, len(rs))
	for _, tx := range rs {
		hashes[tx.Hash] = struct{}{}
	}
	return hashes
}

// HeightRange is an inclusive range of block heights.
type HeightRange struct {
	StartHeight int64
	EndHeight   int64
}

// Session holds label pagination state between calls. It is owned by the caller.
type Session struct {
	CurrentLabel string
	LabelPage    int
}
