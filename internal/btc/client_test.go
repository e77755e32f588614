package btc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitgenius/backend/internal/btc"
)

func newTestClient(t *testing.T, handler http.Handler) (*btc.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := btc.New(btc.Config{
		BaseURL:  srv.URL,
		PriceURL: srv.URL + "/price",
		Timeout:  5 * time.Second,
	})
	return client, srv
}

func TestGetAddressInfo_ComputesConfirmedBalance(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/address/bc1qexample", r.URL.Path)
		w.Write([]byte(`{
			"address": "bc1qexample",
			"chain_stats": {"funded_txo_sum": 150000, "spent_txo_sum": 40000, "tx_count": 7},
			"mempool_stats": {"funded_txo_sum": 500, "spent_txo_sum": 0, "tx_count": 1}
		}`))
	}))

	info, err := client.GetAddressInfo(context.Background(), "bc1qexample")
	require.NoError(t, err)

	assert.Equal(t, "bc1qexample", info.Address)
	assert.Equal(t, int64(110000), info.BalanceSats())
	assert.Equal(t, int64(7), info.ChainStats.TxCount)
}

func TestGetAddressTransactions_TruncatesToLimit(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/address/bc1qexample/txs", r.URL.Path)
		w.Write([]byte(`[{"txid":"a"},{"txid":"b"},{"txid":"c"}]`))
	}))

	txs, err := client.GetAddressTransactions(context.Background(), "bc1qexample", 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.JSONEq(t, `{"txid":"a"}`, string(txs[0]))
	assert.JSONEq(t, `{"txid":"b"}`, string(txs[1]))
}

func TestGetAddressTransactions_LimitLargerThanList(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"txid":"a"}]`))
	}))

	txs, err := client.GetAddressTransactions(context.Background(), "bc1qexample", 10)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestGetTransaction_PassesBodyThrough(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tx/deadbeef", r.URL.Path)
		w.Write([]byte(`{"txid":"deadbeef","fee":120}`))
	}))

	raw, err := client.GetTransaction(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.JSONEq(t, `{"txid":"deadbeef","fee":120}`, string(raw))
}

func TestGetPrice_DecodesSpotPrice(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price", r.URL.Path)
		w.Write([]byte(`{"bitcoin":{"usd":64123.55}}`))
	}))

	price, err := client.GetPrice(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 64123.55, price, 0.001)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"address":"x","chain_stats":{},"mempool_stats":{}}`))
	}))

	_, err := client.GetAddressInfo(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "invalid address", http.StatusBadRequest)
	}))

	_, err := client.GetAddressInfo(context.Background(), "nope")
	require.Error(t, err)

	var apiErr *btc.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetAddressInfo_MalformedBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))

	_, err := client.GetAddressInfo(context.Background(), "x")
	assert.Error(t, err)
}

func TestAmountConversions(t *testing.T) {
	assert.Equal(t, 1.0, btc.SatsToBTC(100_000_000))
	assert.Equal(t, 0.00015, btc.SatsToBTC(15_000))
	assert.Equal(t, int64(100_000_000), btc.BTCToSats(1.0))
	assert.Equal(t, int64(1), btc.BTCToSats(0.00000001))

	// Decimal amounts are not exactly representable; conversion must
	// round rather than truncate the float product.
	assert.Equal(t, int64(15_000), btc.BTCToSats(0.00015))
	assert.Equal(t, int64(230_000_000), btc.BTCToSats(2.3))
}

func TestFormatBTCAmount(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{1.0, "1.0"},
		{0.5, "0.5"},
		{0.00015, "0.00015"},
		{0.12345678, "0.12345678"},
		{42.0, "42.0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, btc.FormatBTCAmount(tt.amount), "amount %v", tt.amount)
	}
}
