package server

import (
	"encoding/base64"
	"fmt"
	"time"

	"keyledger/keys"
	"keyledger/ops"
)

var b64 = base64.StdEncoding

type bundleJSON struct {
	VerifyingKey string `json:"verifying_key"`
	Signature    string `json:"signature"`
}

func (b bundleJSON) decode() (keys.SignatureBundle, error) {
	return keys.DecodeSignatureBundle(b.VerifyingKey, b.Signature)
}

type requestCreateRequest struct {
	ID           string `json:"id"`
	VerifyingKey string `json:"verifying_key"`
}

type requestCreateResponse struct {
	ID      string `json:"id"`
	Payload string `json:"payload"`
}

type sendCreateRequest struct {
	ID           string `json:"id"`
	VerifyingKey string `json:"verifying_key"`
	Signature    string `json:"signature"`
}

type addKeyRequest struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pub_key"`
	Signature bundleJSON `json:"signature"`
}

type addDataRequest struct {
	ID            string     `json:"id"`
	Data          string     `json:"data"`
	DataSignature bundleJSON `json:"data_signature"`
	Signature     bundleJSON `json:"signature"`
}

type byKeyRequest struct {
	VerifyingKey string `json:"verifying_key"`
}

type keyJSON struct {
	Algorithm string `json:"algorithm"`
	Key       string `json:"key"`
	Address   string `json:"address,omitempty"`
}

type dataJSON struct {
	Data      string     `json:"data"`
	Signature bundleJSON `json:"signature"`
}

type accountJSON struct {
	ID        string     `json:"id"`
	Keys      []keyJSON  `json:"keys"`
	Data      []dataJSON `json:"data"`
	Nonce     uint64     `json:"nonce"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type idsResponse struct {
	Accounts []string `json:"accounts"`
}

type accountsResponse struct {
	Accounts []accountJSON `json:"accounts"`
}

type keysResponse struct {
	ID   string    `json:"id"`
	Keys []keyJSON `json:"keys"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func toKeyJSON(k keys.VerifyingKey) keyJSON {
	out := keyJSON{Algorithm: k.Algorithm.String(), Key: k.String()}
	if k.Algorithm == keys.CosmosAdr36 {
		if addr, err := k.CosmosAddress(keys.AddressPrefix); err == nil {
			out.Address = addr
		}
	}
	return out
}

func toKeysJSON(ks []keys.VerifyingKey) []keyJSON {
	out := make([]keyJSON, 0, len(ks))
	for _, k := range ks {
		out = append(out, toKeyJSON(k))
	}
	return out
}

func toAccountJSON(a ops.Account) accountJSON {
	out := accountJSON{ID: a.ID, Keys: toKeysJSON(a.Keys), Data: make([]dataJSON, 0, len(a.Data)), Nonce: a.Nonce}
	for _, d := range a.Data {
		out.Data = append(out.Data, dataJSON{
			Data:      b64.EncodeToString(d.Data),
			Signature: bundleJSON{VerifyingKey: d.Signature.VerifyingKey.String(), Signature: d.Signature.Signature.String()},
		})
	}
	if !a.CreatedAt.IsZero() {
		t := a.CreatedAt.UTC()
		out.CreatedAt = &t
	}
	return out
}

func decodeData(s string) ([]byte, error) {
	b, err := b64.Strict().DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: data: %s", keys.ErrDecode, err.Error())
	}
	return b, nil
}
