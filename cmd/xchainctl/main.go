// Command xchainctl is the thin operator CLI spec §0 calls for: query
// committee/pairs/halted state, trigger payout_rewards against a running
// relayer daemon's admin HTTP API. Deliberately small, the same way the
// teacher's cmd/cli subcommands are thin wrappers over core calls rather
// than reimplementing logic — this non-goal ("CLI parsing") excludes a
// deep command tree, not an operator CLI entirely.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var apiAddr string

func main() {
	root := &cobra.Command{
		Use:   "xchainctl",
		Short: "Operator CLI for the guardian bridge relayer",
	}
	root.PersistentFlags().StringVar(&apiAddr, "addr", "http://127.0.0.1:8090", "relayer admin API base address")

	root.AddCommand(
		committeeCmd(),
		pairCmd(),
		haltedCmd(),
		breakerCmd(),
		payoutCmd(),
		connectionsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func committeeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "committee [id]",
		Short: "Query the current committee, or a specific committee by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/committees/current"
			if len(args) == 1 {
				path = "/api/committees/" + args[0]
			}
			return getAndPrint(path)
		},
	}
	return cmd
}

func pairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pair <local-token-hex>",
		Short: "Query the remote token paired with a local token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/api/pairs/" + strings.TrimPrefix(args[0], "0x"))
		},
	}
}

func haltedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "halted",
		Short: "Query whether the bridge contract is currently halted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/api/halted")
		},
	}
}

func breakerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "breaker",
		Short: "Query the relayer's circuit breaker status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/api/breaker")
		},
	}
}

func payoutCmd() *cobra.Command {
	var committeeID uint64
	var member, token string
	cmd := &cobra.Command{
		Use:   "payout",
		Short: "Trigger payout_rewards for a committee member",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]any{
				"committee_id": committeeID,
				"member":       member,
				"token_id":     token,
			})
			if err != nil {
				return err
			}
			return postAndPrint("/api/payouts", body)
		},
	}
	cmd.Flags().Uint64Var(&committeeID, "committee", 0, "committee id")
	cmd.Flags().StringVar(&member, "member", "", "member account id (hex)")
	cmd.Flags().StringVar(&token, "token", "", "reward token id (hex)")
	return cmd
}

func connectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connections",
		Short: "List the relayer's known chain connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/api/connections")
		},
	}
	return cmd
}

func getAndPrint(path string) error {
	resp, err := http.Get(apiAddr + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func postAndPrint(path string, body []byte) error {
	resp, err := http.Post(apiAddr+path, "application/json", strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("xchainctl: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	enc, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(enc))
	return nil
}
