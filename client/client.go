// Package client drives the account HTTP API, signing every request with a
// local secp256k1 key.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"keyledger/keys"
	"keyledger/ledger"
)

type Key struct {
	Algorithm string `json:"algorithm"`
	Key       string `json:"key"`
	Address   string `json:"address,omitempty"`
}

type Bundle struct {
	VerifyingKey string `json:"verifying_key"`
	Signature    string `json:"signature"`
}

type Data struct {
	Data      string `json:"data"`
	Signature Bundle `json:"signature"`
}

type Account struct {
	ID        string     `json:"id"`
	Keys      []Key      `json:"keys"`
	Data      []Data     `json:"data"`
	Nonce     uint64     `json:"nonce"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// APIError is a non-2xx response.
type APIError struct {
	Status    int
	Message   string `json:"error"`
	RequestID string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s [%s]", e.Status, http.StatusText(e.Status), e.Message, e.RequestID)
}

// Retryable reports whether the server asked the caller to try again.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusServiceUnavailable
}

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func bundleOf(b keys.SignatureBundle) Bundle {
	return Bundle{VerifyingKey: b.VerifyingKey.String(), Signature: b.Signature.String()}
}

// CreateAccount runs the two-step handshake: fetch the challenge for
// (id, signer's key), sign it, send it back.
func (c *Client) CreateAccount(ctx context.Context, id string, signer *keys.SigningKey) (Account, error) {
	vk := signer.VerifyingKey(keys.CosmosAdr36).String()
	var challenge struct {
		Payload string `json:"payload"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/account/request-create", map[string]string{"id": id, "verifying_key": vk}, &challenge)
	if err != nil {
		return Account{}, err
	}
	payload, err := base64.StdEncoding.DecodeString(challenge.Payload)
	if err != nil {
		return Account{}, fmt.Errorf("challenge payload: %w", err)
	}
	sig, err := signer.Sign(payload, keys.CosmosAdr36)
	if err != nil {
		return Account{}, err
	}
	var account Account
	err = c.do(ctx, http.MethodPost, "/v1/account/send-create", map[string]string{"id": id, "verifying_key": vk, "signature": sig.String()}, &account)
	return account, err
}

// AddKey authorizes newKey on id with signer, which must already be on the account.
func (c *Client) AddKey(ctx context.Context, id string, signer *keys.SigningKey, newKey keys.VerifyingKey) (Account, error) {
	auth, err := signer.SignBundle(ledger.AddKeyPayload(id, newKey), keys.CosmosAdr36)
	if err != nil {
		return Account{}, err
	}
	req := struct {
		ID        string `json:"id"`
		PubKey    string `json:"pub_key"`
		Signature Bundle `json:"signature"`
	}{id, newKey.String(), bundleOf(auth)}
	var account Account
	err = c.do(ctx, http.MethodPost, "/v1/account/add-key", req, &account)
	return account, err
}

// AddData attaches data to id. signer both attests to the data and authorizes
// the append.
func (c *Client) AddData(ctx context.Context, id string, signer *keys.SigningKey, data []byte) (Account, error) {
	dataSig, err := signer.SignBundle(data, keys.CosmosAdr36)
	if err != nil {
		return Account{}, err
	}
	auth, err := signer.SignBundle(ledger.AddDataPayload(id, data, dataSig), keys.CosmosAdr36)
	if err != nil {
		return Account{}, err
	}
	req := struct {
		ID            string `json:"id"`
		Data          string `json:"data"`
		DataSignature Bundle `json:"data_signature"`
		Signature     Bundle `json:"signature"`
	}{id, base64.StdEncoding.EncodeToString(data), bundleOf(dataSig), bundleOf(auth)}
	var account Account
	err = c.do(ctx, http.MethodPost, "/v1/account/add-data", req, &account)
	return account, err
}

func (c *Client) GetAccount(ctx context.Context, id string) (Account, error) {
	var account Account
	err := c.do(ctx, http.MethodGet, "/v1/account/get?id="+url.QueryEscape(id), nil, &account)
	return account, err
}

func (c *Client) ListAccounts(ctx context.Context) ([]string, error) {
	var out struct {
		Accounts []string `json:"accounts"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/account/list-accounts", nil, &out)
	return out.Accounts, err
}
