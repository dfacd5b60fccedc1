package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tile2048/internal/reward"
	"github.com/vovakirdan/tile2048/internal/wallet"
)

var (
	flagClaimsLimit int
	flagClaimStatus string
)

var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "List pending reward claims",
	Long: `Shows reward claims recorded by the API that are still waiting for a
payout, oldest first.

Examples:
  tile2048 claims
  tile2048 claims mark 12 --status paid`,
	Args: cobra.NoArgs,
	RunE: runClaims,
}

var claimsMarkCmd = &cobra.Command{
	Use:   "mark <id>",
	Short: "Set the status of a claim",
	Args:  cobra.ExactArgs(1),
	RunE:  runClaimsMark,
}

func init() {
	claimsCmd.Flags().IntVar(&flagClaimsLimit, "limit", 50, "Maximum number of claims to show")
	claimsMarkCmd.Flags().StringVar(&flagClaimStatus, "status", string(reward.StatusPaid), "New status: paid, failed or skipped")
	claimsCmd.AddCommand(claimsMarkCmd)
}

func runClaims(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer store.Close()

	claims, err := store.PendingClaims(cmd.Context(), flagClaimsLimit)
	if err != nil {
		return err
	}
	if len(claims) == 0 {
		fmt.Println("No pending claims.")
		return nil
	}

	fmt.Printf("  %-6s  %-13s  %-12s  %-8s  %-6s  %s\n", "ID", "Account", "Mode", "Score", "Tile", "Ended")
	fmt.Printf("  %-6s  %-13s  %-12s  %-8s  %-6s  %s\n", "--", "-------", "----", "-----", "----", "-----")
	for _, c := range claims {
		fmt.Printf("  %-6d  %-13s  %-12s  %-8d  %-6d  %s\n",
			c.ID, wallet.Short(c.Account), c.GameID, c.Score, c.MaxTile, c.EndedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runClaimsMark(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid claim id %q", args[0])
	}

	status := reward.Status(flagClaimStatus)
	switch status {
	case reward.StatusPaid, reward.StatusFailed, reward.StatusSkipped:
	default:
		return fmt.Errorf("--status must be paid, failed or skipped, got %q", flagClaimStatus)
	}

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	defer store.Close()

	if err := store.MarkClaim(cmd.Context(), id, status); err != nil {
		return err
	}
	logger.Info("claim updated", "claim", id, "status", status)
	return nil
}
