// Package tonapi is a read-only client for the TON blockchain HTTP API and
// the address-format lookup service.
package tonapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/okcoin/okcoin-api/internal/pkg/apperr"
)

// DefaultPageSize is the page size used by the poller.
const DefaultPageSize = 100

// Message is one internal message of a transaction.
type Message struct {
	Source      string
	Destination string
	Value       int64
	Text        string
}

// Transaction is a raw account transaction as returned by the API.
type Transaction struct {
	Hash        string
	LogicalTime int64
	Success     bool
	TotalFees   int64
	UnixTime    int64
	InMsg       *Message
	OutMsgs     []Message
}

// Page is one page of account transactions, newest first.
type Page struct {
	Transactions []Transaction
	// Malformed counts entries that could not be decoded and were dropped.
	Malformed int
}

// Query selects a page of transactions. Zero values are omitted.
type Query struct {
	Limit    int
	AfterLT  int64
	BeforeLT int64
}

// Client reads account transactions.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a chain API client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    newHTTPClient(timeout),
	}
}

// Transactions fetches one page of an account's transactions, newest first.
func (c *Client) Transactions(ctx context.Context, account string, q Query) (*Page, error) {
	if strings.TrimSpace(account) == "" {
		return nil, fmt.Errorf("tonapi config error: account is empty")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort_order", "desc")
	if q.AfterLT > 0 {
		params.Set("after_lt", strconv.FormatInt(q.AfterLT, 10))
	}
	if q.BeforeLT > 0 {
		params.Set("before_lt", strconv.FormatInt(q.BeforeLT, 10))
	}

	endpoint := c.baseURL + "/v2/blockchain/accounts/" + url.PathEscape(account) + "/transactions?" + params.Encode()
	body, err := get(ctx, c.http, "tonapi", endpoint, c.token)
	if err != nil {
		return nil, err
	}
	return ParsePage(body)
}

// ParsePage decodes a transactions response. Individual entries without a
// hash are counted as malformed and dropped; a body without a transactions
// array is an error.
func ParsePage(body []byte) (*Page, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("tonapi decode error: invalid json: %w", apperr.ErrUpstreamUnavailable)
	}
	list := gjson.GetBytes(body, "transactions")
	if !list.IsArray() {
		return nil, fmt.Errorf("tonapi decode error: transactions missing: %w", apperr.ErrUpstreamUnavailable)
	}

	page := &Page{}
	list.ForEach(func(_, tx gjson.Result) bool {
		parsed, ok := parseTransaction(tx)
		if !ok {
			page.Malformed++
			return true
		}
		page.Transactions = append(page.Transactions, parsed)
		return true
	})
	return page, nil
}

func parseTransaction(tx gjson.Result) (Transaction, bool) {
	if !tx.IsObject() {
		return Transaction{}, false
	}
	hash := tx.Get("hash").String()
	lt := tx.Get("lt")
	if hash == "" || !lt.Exists() {
		return Transaction{}, false
	}

	out := Transaction{
		Hash:        hash,
		LogicalTime: lt.Int(),
		Success:     tx.Get("success").Bool(),
		TotalFees:   tx.Get("total_fees").Int(),
		UnixTime:    tx.Get("utime").Int(),
	}
	if in := tx.Get("in_msg"); in.IsObject() {
		msg := parseMessage(in)
		out.InMsg = &msg
	}
	for _, m := range tx.Get("out_msgs").Array() {
		if m.IsObject() {
			out.OutMsgs = append(out.OutMsgs, parseMessage(m))
		}
	}
	return out, true
}

func parseMessage(m gjson.Result) Message {
	return Message{
		Source:      m.Get("source.address").String(),
		Destination: m.Get("destination.address").String(),
		Value:       m.Get("value").Int(),
		Text:        m.Get("decoded_body.text").String(),
	}
}
