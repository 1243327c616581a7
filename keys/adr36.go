package keys

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/ripemd160"
)

// AddressPrefix is the bech32 prefix wallets derive when signing with the
// "cosmoshub-4" chain id.
const AddressPrefix = "cosmos"

type adr36Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

type adr36Fee struct {
	Amount []adr36Coin `json:"amount"`
	Gas    string      `json:"gas"`
}

type adr36Value struct {
	Data   string `json:"data"`
	Signer string `json:"signer"`
}

type adr36Msg struct {
	Type  string     `json:"type"`
	Value adr36Value `json:"value"`
}

// field order is the amino JSON sort order
type adr36SignDoc struct {
	AccountNumber string     `json:"account_number"`
	ChainID       string     `json:"chain_id"`
	Fee           adr36Fee   `json:"fee"`
	Memo          string     `json:"memo"`
	Msgs          []adr36Msg `json:"msgs"`
	Sequence      string     `json:"sequence"`
}

func adr36SignDocBytes(message []byte, signer string) ([]byte, error) {
	doc := adr36SignDoc{
		AccountNumber: "0",
		Fee:           adr36Fee{Amount: []adr36Coin{}, Gas: "0"},
		Msgs: []adr36Msg{{
			Type: "sign/MsgSignData",
			Value: adr36Value{
				Data:   base64.StdEncoding.EncodeToString(message),
				Signer: signer,
			},
		}},
		Sequence: "0",
	}
	return json.Marshal(doc)
}

func adr36Digest(message []byte, pub *btcec.PublicKey, prefix string) ([]byte, error) {
	signer, err := cosmosAddress(pub, prefix)
	if err != nil {
		return nil, err
	}
	doc, err := adr36SignDocBytes(message, signer)
	if err != nil {
		return nil, fmt.Errorf("adr36 sign doc: %w", err)
	}
	h := sha256.Sum256(doc)
	return h[:], nil
}

func cosmosAddress(pub *btcec.PublicKey, prefix string) (string, error) {
	sh := sha256.Sum256(pub.SerializeCompressed())
	rh := ripemd160.New()
	rh.Write(sh[:])
	conv, err := bech32.ConvertBits(rh.Sum(nil), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrKeyFormat, err.Error())
	}
	addr, err := bech32.Encode(prefix, conv)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrKeyFormat, err.Error())
	}
	return addr, nil
}
