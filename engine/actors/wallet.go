package actors

import (
	"encoding/json"
	"fmt"

	"github.com/nbd-wtf/go-nostr/nip06"
	"github.com/sasha-s/go-deadlock"
	"keyledger/engine/library"
	"keyledger/keys"
)

var currentWallet library.Wallet
var currentWalletMutex = &deadlock.Mutex{}

// MyWallet returns the service wallet, restoring it from disk or creating a
// new one on first run.
func MyWallet() (library.Wallet, error) {
	currentWalletMutex.Lock()
	defer currentWalletMutex.Unlock()
	if len(currentWallet.PrivateKey) > 0 {
		return currentWallet, nil
	}
	if w, ok := getWalletFromDisk(); ok {
		currentWallet = w
		return currentWallet, nil
	}
	library.LogCLI("Generating a new service wallet, write down the seed words if you want to keep it", 4)
	w, err := makeNewWallet()
	if err != nil {
		return library.Wallet{}, err
	}
	b, err := json.Marshal(w)
	if err != nil {
		return library.Wallet{}, err
	}
	if err = Write("wallet", "current", b); err != nil {
		return library.Wallet{}, fmt.Errorf("persist wallet: %w", err)
	}
	currentWallet = w
	return currentWallet, nil
}

// ServiceSigningKey is the key the service endorses account creations with.
func ServiceSigningKey() (*keys.SigningKey, error) {
	w, err := MyWallet()
	if err != nil {
		return nil, err
	}
	return keys.SigningKeyFromHex(w.PrivateKey)
}

func makeNewWallet() (library.Wallet, error) {
	seedWords, err := nip06.GenerateSeedWords()
	if err != nil {
		return library.Wallet{}, err
	}
	seed := nip06.SeedFromWords(seedWords)
	sk, err := nip06.PrivateKeyFromSeed(seed)
	if err != nil {
		return library.Wallet{}, err
	}
	signingKey, err := keys.SigningKeyFromHex(sk)
	if err != nil {
		return library.Wallet{}, err
	}
	return library.Wallet{
		PrivateKey: sk,
		SeedWords:  seedWords,
		Account:    signingKey.VerifyingKey(keys.Secp256k1).String(),
	}, nil
}

func getWalletFromDisk() (w library.Wallet, ok bool) {
	file, ok := Open("wallet", "current")
	if !ok {
		return library.Wallet{}, false
	}
	defer file.Close()
	if err := json.NewDecoder(file).Decode(&w); err != nil {
		library.LogCLI(fmt.Sprintf("Error parsing wallet file: %s", err.Error()), 2)
		return library.Wallet{}, false
	}
	if len(w.PrivateKey) == 0 {
		return library.Wallet{}, false
	}
	return w, true
}

func resetWallet() {
	currentWalletMutex.Lock()
	defer currentWalletMutex.Unlock()
	currentWallet = library.Wallet{}
}
