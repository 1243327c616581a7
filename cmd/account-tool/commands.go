package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"keyledger/client"
	"keyledger/engine/actors"
	"keyledger/keys"
)

type options struct {
	url  string
	name string
	id   string
}

// RootCommand builds the account-tool command tree. newClient is called with
// the --url value each time a command talks to the service.
func RootCommand(defaultURL string, newClient func(url string) *client.Client) *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:          "account-tool",
		Short:        "create and manage key-owned accounts on a keyledger service",
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&opts.url, "url", "u", defaultURL, "service base url")
	rootCmd.PersistentFlags().StringVarP(&opts.name, "name", "n", "default", "name of the stored signing key")
	rootCmd.PersistentFlags().StringVarP(&opts.id, "id", "i", "", "account id")

	connect := func(cmd *cobra.Command) (context.Context, context.CancelFunc, *client.Client) {
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		return ctx, cancel, newClient(opts.url)
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "keygen",
		Short: "generate a signing key and store it under --name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sk, err := keys.GenerateSigningKey()
			if err != nil {
				return err
			}
			if err := storeKey(opts.name, sk); err != nil {
				return err
			}
			vk := sk.VerifyingKey(keys.CosmosAdr36)
			addr, err := vk.CosmosAddress(keys.AddressPrefix)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Key: %s\nVerifying Key: %s\nAddress: %s\n", opts.name, vk.String(), addr)
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "create account --id owned by key --name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sk, err := loadKey(opts.name)
			if err != nil {
				return err
			}
			ctx, cancel, c := connect(cmd)
			defer cancel()
			return printAccount(cmd.OutOrStdout())(c.CreateAccount(ctx, opts.id, sk))
		},
	})

	var newKey string
	addKey := &cobra.Command{
		Use:   "add-key",
		Short: "authorize the stored key --new on account --id, signed by --name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sk, err := loadKey(opts.name)
			if err != nil {
				return err
			}
			added, err := loadKey(newKey)
			if err != nil {
				return err
			}
			ctx, cancel, c := connect(cmd)
			defer cancel()
			return printAccount(cmd.OutOrStdout())(c.AddKey(ctx, opts.id, sk, added.VerifyingKey(keys.CosmosAdr36)))
		},
	}
	addKey.Flags().StringVarP(&newKey, "new", "k", "", "name of the stored key to add")
	_ = addKey.MarkFlagRequired("new")
	rootCmd.AddCommand(addKey)

	var data string
	addData := &cobra.Command{
		Use:   "add-data",
		Short: "attach --data to account --id, signed by --name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sk, err := loadKey(opts.name)
			if err != nil {
				return err
			}
			ctx, cancel, c := connect(cmd)
			defer cancel()
			return printAccount(cmd.OutOrStdout())(c.AddData(ctx, opts.id, sk, []byte(data)))
		},
	}
	addData.Flags().StringVarP(&data, "data", "d", "", "data to attach")
	rootCmd.AddCommand(addData)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "print account --id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, c := connect(cmd)
			defer cancel()
			return printAccount(cmd.OutOrStdout())(c.GetAccount(ctx, opts.id))
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "print every account id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, c := connect(cmd)
			defer cancel()
			ids, err := c.ListAccounts(ctx)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	})
	return rootCmd
}

func printAccount(out io.Writer) func(client.Account, error) error {
	return func(a client.Account, err error) error {
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
}

func storeKey(name string, sk *keys.SigningKey) error {
	if f, exists := actors.Open("keys", name); exists {
		f.Close()
		return fmt.Errorf("key %s already exists", name)
	}
	return actors.Write("keys", name, []byte(sk.Hex()))
}

func loadKey(name string) (*keys.SigningKey, error) {
	f, ok := actors.Open("keys", name)
	if !ok {
		return nil, fmt.Errorf("no stored key named %s, run keygen first", name)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return keys.SigningKeyFromHex(strings.TrimSpace(string(b)))
}
