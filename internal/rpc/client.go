package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hyperion-chain/hyperion/internal/core"
)

// NodeClient is the interface the mining coordinator depends on, so
// tests can substitute a fake node without standing up an HTTP server.
type NodeClient interface {
	GetBlockTemplate(ctx context.Context) (*BlockTemplateResult, error)
	SubmitBlock(ctx context.Context, block *core.Block) (*SubmitBlockResult, error)
}

// Client implements NodeClient using JSON-RPC 2.0 over HTTP
// (spec.md §6.2).
type Client struct {
	url    string
	client *http.Client
	idSeq  atomic.Int64
}

// NewClient creates a client targeting the node's RPC URL.
func NewClient(url string) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	id := c.idSeq.Add(1)

	var rawParams json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		rawParams = b
	}

	req := Request{JSONRPC: "2.0", ID: id, Method: method, Params: rawParams}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("rpc request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w (body: %s)", err, string(respBody))
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// GetBlockTemplate fetches a new block template from the node.
func (c *Client) GetBlockTemplate(ctx context.Context) (*BlockTemplateResult, error) {
	result, err := c.call(ctx, "get_block_template", nil)
	if err != nil {
		return nil, fmt.Errorf("get_block_template: %w", err)
	}
	var tmpl BlockTemplateResult
	if err := json.Unmarshal(result, &tmpl); err != nil {
		return nil, fmt.Errorf("unmarshal block template: %w", err)
	}
	return &tmpl, nil
}

// SubmitBlock submits a mined block to the node.
func (c *Client) SubmitBlock(ctx context.Context, block *core.Block) (*SubmitBlockResult, error) {
	params := SubmitBlockParams{BlockHex: blockToHex(block)}
	result, err := c.call(ctx, "submit_block", params)
	if err != nil {
		return nil, fmt.Errorf("submit_block: %w", err)
	}
	var out SubmitBlockResult
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("unmarshal submit_block result: %w", err)
	}
	return &out, nil
}

// TemplateToBlock converts a template result into a minable block: it
// decodes the peeked transactions back into core.Transaction values
// and reassembles a Header skeleton with nonce 0.
func TemplateToBlock(tmpl *BlockTemplateResult) (*core.Block, error) {
	txs := make([]*core.Transaction, len(tmpl.Transactions))
	for i, j := range tmpl.Transactions {
		tx, err := txFromJSON(j)
		if err != nil {
			return nil, fmt.Errorf("decode tx %d: %w", i, err)
		}
		txs[i] = tx
	}

	prevHash, err := decodeHash32(tmpl.PreviousBlockHash)
	if err != nil {
		return nil, fmt.Errorf("decode previous_block_hash: %w", err)
	}

	return core.BuildBlockTemplate(prevHash, txs, tmpl.DifficultyCompact, tmpl.Timestamp), nil
}
