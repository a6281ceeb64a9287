package utils

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/manifest-network/metaharvest/internal/client"
	"github.com/manifest-network/metaharvest/internal/models"
)

// GetLatestBlock returns the chain tip.
func GetLatestBlock(ctx context.Context, src client.Source) (*models.Block, error) {
	var block models.Block
	if err := src.Get(ctx, "/blocks/latest", &block); err != nil {
		return nil, errors.WithMessage(err, "error fetching latest block")
	}
	return &block, nil
}

// GetBlock returns a block by hash or height.
func GetBlock(ctx context.Context, src client.Source, hashOrHeight string) (*models.Block, error) {
	var block models.Block
	if err := src.Get(ctx, "/blocks/"+url.PathEscape(hashOrHeight), &block); err != nil {
		return nil, errors.WithMessagef(err, "error fetching block %s", hashOrHeight)
	}
	return &block, nil
}

// GetBlockAtHeight returns the block at height.
func GetBlockAtHeight(ctx context.Context, src client.Source, height int64) (*models.Block, error) {
	return GetBlock(ctx, src, strconv.FormatInt(height, 10))
}

// GetBlockTxs returns the transaction hashes of a block, by hash or height.
func GetBlockTxs(ctx context.Context, src client.Source, hashOrHeight string) ([]string, error) {
	var hashes []string
	if err := src.Get(ctx, "/blocks/"+url.PathEscape(hashOrHeight)+"/txs", &hashes); err != nil {
		return nil, errors.WithMessagef(err, "error fetching transactions of block %s", hashOrHeight)
	}
	return hashes, nil
}

// GetTxMetadata returns the labeled metadata items of a transaction.
func GetTxMetadata(ctx context.Context, src client.Source, txHash string) ([]models.MetadataItem, error) {
	var items []models.MetadataItem
	if err := src.Get(ctx, "/txs/"+url.PathEscape(txHash)+"/metadata", &items); err != nil {
		return nil, errors.WithMessagef(err, "error fetching metadata of tx %s", txHash)
	}
	return items, nil
}

// GetTxUTXOs returns the inputs and outputs of a transaction.
func GetTxUTXOs(ctx context.Context, src client.Source, txHash string) (*models.TxUTXOs, error) {
	var utxos models.TxUTXOs
	if err := src.Get(ctx, "/txs/"+url.PathEscape(txHash)+"/utxos", &utxos); err != nil {
		return nil, errors.WithMessagef(err, "error fetching utxos of tx %s", txHash)
	}
	return &utxos, nil
}

// LabelPagePath builds the newest-first label search path.
func LabelPagePath(label string, count, page int) string {
	q := url.Values{}
	q.Set("count", strconv.Itoa(count))
	q.Set("page", strconv.Itoa(page))
	q.Set("order", "desc")
	return fmt.Sprintf("/metadata/txs/labels/%s?%s", url.PathEscape(label), q.Encode())
}

// GetLabelPage returns one page of transactions carrying metadata under label.
func GetLabelPage(ctx context.Context, src client.Source, label string, count, page int) ([]models.LabelEntry, error) {
	var entries []models.LabelEntry
	if err := src.Get(ctx, LabelPagePath(label, count, page), &entries); err != nil {
		return nil, errors.WithMessagef(err, "error fetching label %s page %d", label, page)
	}
	return entries, nil
}
