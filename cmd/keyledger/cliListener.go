package main

import (
	"context"
	"fmt"

	"github.com/eiannone/keyboard"
	"keyledger/engine/actors"
	"keyledger/ledger"
	"keyledger/ops"
)

// cliListener is a cheap and nasty way to inspect a running service. It listens for keypresses and prints state.
func cliListener(query *ops.Query, prover *ledger.MemoryProver) {
	fmt.Println("VIEW CURRENT STATE:\na: accounts\ne: ledger epochs\nw: service wallet\nc: service config\nq: to quit\nSee cliListener.go for more")
	for {
		r, k, err := keyboard.GetSingleKey()
		if err != nil {
			fmt.Println("cli listener stopped: " + err.Error())
			return
		}
		str := string(r)
		switch str {
		default:
			if k == keyboard.KeyEnter {
				fmt.Println("\n-----------------------------------")
				break
			}
			if r == 0 {
				break
			}
			fmt.Println("Key " + str + " is not bound to anything. See cliListener.go for more details.")
		case "a":
			for _, a := range query.ListAccountsWithDetail(context.Background()) {
				fmt.Printf("\n--------- Account: %s -----------\nNonce: %d\nData entries: %d\n", a.ID, a.Nonce, len(a.Data))
				for _, key := range a.Keys {
					fmt.Printf("Key: %s (%s)\n", key.String(), key.Algorithm)
				}
			}
		case "e":
			fmt.Printf("LEDGER HEIGHT: %d\n", prover.Height())
			for _, epoch := range prover.Epochs() {
				fmt.Printf("\nHeight: %d Transactions: %d\nState Root: %s\nCommitted At: %s\n", epoch.Height, len(epoch.TxIDs), epoch.StateRoot, epoch.CommittedAt.String())
			}
		case "w":
			w, err := actors.MyWallet()
			if err != nil {
				fmt.Println(err.Error())
				break
			}
			fmt.Printf("Service Key: \n%s\n", w.Account)
		case "c":
			fmt.Println("CURRENT CONFIG")
			for k, v := range actors.MakeOrGetConfig().AllSettings() {
				fmt.Printf("\nKey: %s; Value: %v\n", k, v)
			}
		case "q":
			actors.Terminate()
			return
		}
	}
}
