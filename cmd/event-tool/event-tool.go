package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nbd-wtf/go-nostr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bountyboard/engine/actors"
	"bountyboard/engine/helpers"
	"bountyboard/engine/library"
	"bountyboard/messaging/relays"
	"bountyboard/state/bounties"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	previous string
	inbox    string
	relays   []string
}

func rootCommand() *cobra.Command {
	var o options
	rootCmd := &cobra.Command{
		Use:   "event-tool",
		Short: "Build signed bounty board events with the engine wallet",
		Long:  "Every command prints one signed event as a JSON line. Use --append to add it to the engine inbox instead.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				library.LogCLI(err.Error(), 4)
			}
			conf := viper.New()
			actors.InitConfig(conf)
			actors.SetConfig(conf)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&o.previous, "previous", "p", actors.ReplayPrevention, "ID of the last event from this wallet the engine handled")
	rootCmd.PersistentFlags().StringVarP(&o.inbox, "append", "a", "", "append the event to this inbox file instead of printing it")
	rootCmd.PersistentFlags().StringSliceVarP(&o.relays, "relay", "r", nil, "also publish the event to these relays")

	rootCmd.AddCommand(
		initBoardCommand(&o),
		createCommand(&o),
		claimCommand(&o),
		payoutCommand(&o),
		headerCommand(&o),
		addressCommand(),
	)
	return rootCmd
}

func initBoardCommand(o *options) *cobra.Command {
	var c bounties.Kind642000
	cmd := &cobra.Command{
		Use:   "init-board",
		Short: "initialize the board for a mint, with this wallet as admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return emitOperation(o, bounties.KindInitializeBoard, c)
		},
	}
	cmd.Flags().StringVar(&c.Mint, "mint", "", "the value unit the board accepts")
	cmd.MarkFlagRequired("mint")
	return cmd
}

func createCommand(o *options) *cobra.Command {
	var c bounties.Kind642002
	cmd := &cobra.Command{
		Use:   "create",
		Short: "create a bounty, escrowing the amount from a funding account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return emitOperation(o, bounties.KindCreateBounty, c)
		},
	}
	cmd.Flags().StringVar(&c.Board, "board", "", "board address")
	cmd.Flags().StringVar(&c.Funding, "funding", "", "token account the reward is taken from")
	cmd.Flags().Uint64Var(&c.Amount, "amount", 0, "reward amount")
	cmd.Flags().StringVar(&c.TaskReference, "task", "", "task reference, for example an issue URL")
	cmd.Flags().Int64Var(&c.ExpiresAt, "expires", 0, "deadline as a unix timestamp")
	for _, required := range []string{"board", "funding", "amount", "task", "expires"} {
		cmd.MarkFlagRequired(required)
	}
	return cmd
}

func claimCommand(o *options) *cobra.Command {
	var c bounties.Kind642004
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "claim an open bounty for this wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return emitOperation(o, bounties.KindClaimBounty, c)
		},
	}
	cmd.Flags().StringVar(&c.Board, "board", "", "board address")
	cmd.Flags().StringVar(&c.Bounty, "bounty", "", "bounty address")
	cmd.Flags().StringVar(&c.RewardAccount, "reward", "", "token account owned by this wallet that receives the advance")
	for _, required := range []string{"board", "bounty", "reward"} {
		cmd.MarkFlagRequired(required)
	}
	return cmd
}

func payoutCommand(o *options) *cobra.Command {
	var c bounties.Kind642006
	cmd := &cobra.Command{
		Use:   "payout",
		Short: "split a payout from an escrow between the developer and the two pools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return emitOperation(o, bounties.KindProcessPayout, c)
		},
	}
	cmd.Flags().StringVar(&c.Board, "board", "", "board address")
	cmd.Flags().StringVar(&c.Escrow, "escrow", "", "escrow account to pay from")
	cmd.Flags().Uint64Var(&c.Amount, "amount", 0, "payout amount")
	cmd.Flags().StringVar(&c.TaskReference, "task", "", "task reference")
	cmd.Flags().StringVar(&c.Destination, "developer", "", "developer token account")
	cmd.Flags().StringVar(&c.PublicPool, "public-pool", "", "public pool token account")
	cmd.Flags().StringVar(&c.Maintainers, "maintainers", "", "maintainers pool token account")
	cmd.Flags().StringVar(&c.Bounty, "bounty", "", "claimed bounty to complete with this payout")
	for _, required := range []string{"board", "escrow", "amount", "task", "developer", "public-pool", "maintainers"} {
		cmd.MarkFlagRequired(required)
	}
	return cmd
}

func headerCommand(o *options) *cobra.Command {
	var height, minerTime, medianTime, difficulty int64
	var hash string
	cmd := &cobra.Command{
		Use:   "header",
		Short: "publish a block header as a clock oracle",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := helpers.SignedHeader(actors.MyWallet(), height, hash, minerTime, medianTime, difficulty)
			if err != nil {
				return err
			}
			return emit(o, e)
		},
	}
	cmd.Flags().Int64Var(&height, "height", 0, "block height")
	cmd.Flags().StringVar(&hash, "hash", "", "block hash")
	cmd.Flags().Int64Var(&minerTime, "minertime", 0, "block timestamp")
	cmd.Flags().Int64Var(&medianTime, "mediantime", 0, "median time past")
	cmd.Flags().Int64Var(&difficulty, "difficulty", 0, "difficulty")
	for _, required := range []string{"height", "hash", "mediantime"} {
		cmd.MarkFlagRequired(required)
	}
	return cmd
}

func addressCommand() *cobra.Command {
	var mint, board string
	var sequence uint64
	cmd := &cobra.Command{
		Use:   "address",
		Short: "print the board address for --mint, or the bounty and escrow addresses for --board and --sequence",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(mint) > 0 {
				address, bump, err := bounties.BoardAddress(actors.ProgramID, mint)
				if err != nil {
					return err
				}
				fmt.Printf("board: %s bump: %d\n", address, bump)
				return nil
			}
			bounty, _, err := bounties.BountyAddress(actors.ProgramID, board, sequence)
			if err != nil {
				return err
			}
			escrow, _, err := bounties.EscrowAddress(actors.ProgramID, bounty)
			if err != nil {
				return err
			}
			fmt.Printf("bounty: %s\nescrow: %s\n", bounty, escrow)
			return nil
		},
	}
	cmd.Flags().StringVar(&mint, "mint", "", "mint of the board")
	cmd.Flags().StringVar(&board, "board", "", "board address")
	cmd.Flags().Uint64Var(&sequence, "sequence", 0, "bounty sequence number")
	return cmd
}

func emitOperation(o *options, kind int, content any) error {
	e, err := helpers.SignedOperation(actors.MyWallet(), kind, o.previous, content)
	if err != nil {
		return err
	}
	return emit(o, e)
}

func emit(o *options, e nostr.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if len(o.relays) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if n := relays.PublishToRelays(ctx, []nostr.Event{e}, o.relays); n == 0 {
			return fmt.Errorf("no relay accepted event %s", e.ID)
		}
	}
	if len(o.inbox) == 0 {
		fmt.Println(string(b))
		return nil
	}
	f, err := os.OpenFile(o.inbox, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err = f.Write(append(b, '\n')); err != nil {
		return err
	}
	library.LogCLI(fmt.Sprintf("Appended event %s to %s", e.ID, o.inbox), 3)
	return nil
}
