package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"keyledger/client"
	"keyledger/engine/actors"
)

func main() {
	conf := viper.New()
	actors.InitConfig(conf)
	actors.SetConfig(conf)

	defaultURL := "http://" + strings.Replace(conf.GetString("httpAddr"), "0.0.0.0", "127.0.0.1", 1)
	if err := RootCommand(defaultURL, func(url string) *client.Client { return client.New(url, nil) }).Execute(); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			fmt.Fprintln(os.Stderr, "the ledger is unavailable, try again shortly")
		}
		os.Exit(1)
	}
}
