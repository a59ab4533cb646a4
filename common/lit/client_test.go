package lit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/livepeer/video-nft-sdk/common/loggers"
	"github.com/livepeer/video-nft-sdk/models"
)

var testAuthSigs = models.AuthSigs{
	"ethereum": {
		Sig:           "0xsig",
		DerivedVia:    "web3.eth.personal.sign",
		SignedMessage: "test message",
		Address:       "0xviewer",
	},
}

func newGatewayServer(exchangeStatus int, exchangeBody any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/web/handshake":
			json.NewEncoder(w).Encode(map[string]string{"networkPublicKey": "0xkey"})
		case "/web/signing-access-control-condition":
			w.WriteHeader(exchangeStatus)
			json.NewEncoder(w).Encode(exchangeBody)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestConnectAndExchange(t *testing.T) {
	server := newGatewayServer(http.StatusOK, map[string]string{"token": "header.payload.signature"})
	defer server.Close()

	client := NewClient(server.URL, loggers.NewTestLogger())
	if client.Ready() {
		t.Fatalf("client must not be ready before the handshake")
	}
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error received %v", err)
	}
	if !client.Ready() {
		t.Fatalf("client should be ready after the handshake")
	}

	conditions := json.RawMessage(`[{"chain":"ethereum"}]`)
	token, err := client.GetSignedToken(context.Background(), conditions, testAuthSigs, models.ResourceId{"path": "/abcd1234"})
	if err != nil {
		t.Fatalf("unexpected error received %v", err)
	}
	if token != "header.payload.signature" {
		t.Errorf("unexpected token %q", token)
	}
}

func TestExchangeBeforeConnect(t *testing.T) {
	server := newGatewayServer(http.StatusOK, map[string]string{"token": "t"})
	defer server.Close()

	client := NewClient(server.URL, loggers.NewTestLogger())
	_, err := client.GetSignedToken(context.Background(), json.RawMessage(`[]`), testAuthSigs, nil)
	if err == nil {
		t.Fatalf("exchange must not be attempted before the handshake")
	}
}

func TestExchangeRejection(t *testing.T) {
	server := newGatewayServer(http.StatusUnauthorized, map[string]string{
		"errorCode": "not_authorized",
		"message":   "address does not satisfy the access control conditions",
	})
	defer server.Close()

	client := NewClient(server.URL, loggers.NewTestLogger())
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("unexpected error received %v", err)
	}
	conditions := json.RawMessage(`[{"chain":"ethereum"}]`)
	_, err := client.GetSignedToken(context.Background(), conditions, testAuthSigs, nil)
	exchangeErr := new(models.ExchangeError)
	if !errors.As(err, &exchangeErr) {
		t.Fatalf("expected an exchange error, got %v", err)
	}
	// The network's answer is surfaced verbatim, not masked as transient.
	if exchangeErr.Error() != "address does not satisfy the access control conditions" {
		t.Errorf("unexpected error message %q", exchangeErr.Error())
	}
}

func TestConnectFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, loggers.NewTestLogger())
	if err := client.Connect(context.Background()); err == nil {
		t.Fatalf("should have received error")
	}
	if client.Ready() {
		t.Errorf("client must not report ready after a failed handshake")
	}
}
