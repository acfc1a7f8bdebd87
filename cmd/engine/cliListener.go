package main

import (
	"fmt"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/eiannone/keyboard"
	"golang.org/x/exp/maps"

	"bountyboard/engine/actors"
	"bountyboard/engine/library"
	"bountyboard/messaging/eventconductor"
	"bountyboard/state/blocks"
	"bountyboard/state/bounties"
)

// cliListener is a cheap and nasty way to look at engine state. It listens for keypresses and executes commands.
func cliListener(interrupt chan struct{}, engine *bounties.Engine, conductor *eventconductor.Conductor, chain *blocks.Chain) {
	fmt.Println("VIEW CURRENT STATE:\nb: boards and bounties\nw: current wallet\nr: latest event of current wallet and replay state hash\nt: block tip and clock\nc: engine config\ni: reload the inbox\nd: dump everything\nq: to quit\nSee cliListener.go for more")
	for {
		r, k, err := keyboard.GetSingleKey()
		if err != nil {
			panic(err)
		}
		str := string(r)
		switch str {
		default:
			if k == 13 {
				fmt.Println("\n-----------------------------------")
				break
			}
			if r == 0 {
				break
			}
			fmt.Println("Key " + str + " is not bound to any command. See main.cliListener for more details.")
		case "b":
			boards := knownBoards(engine, conductor)
			now := chain.Now()
			for _, address := range boards {
				m, err := engine.GetMapped(address)
				if err != nil {
					actors.LogCLI(err.Error(), 1)
					continue
				}
				fmt.Printf("\n--------- Board: %s -----------\nAdmin: %s\nMint: %s\nBounties Created: %d\nDeposited: %d\nPaid Out: %d\nLast Payout: %d\n",
					address, m.Board.Admin, m.Board.Mint, m.Board.TotalBountiesCreated, m.Board.TotalDeposited, m.Board.TotalValuePaidOut, m.Board.LastPayoutTimestamp)
				for _, bounty := range m.Bounties {
					fmt.Printf("\n#%d %s\nTask: %s\nAmount: %d\nStatus: %s\nClaimant: %s\nExpires At: %d\nEscrow: %s\n",
						bounty.Sequence, bounty.Address, bounty.TaskReference, bounty.Amount, bounty.EffectiveStatus(now), bounty.Claimant, bounty.ExpiresAt, bounty.Escrow)
				}
				fmt.Printf("\n--------- End of data for: %s -----------\n\n", address)
			}
		case "q":
			close(interrupt)
			return
		case "w":
			fmt.Printf("Current Wallet: \n%s\n", actors.MyWallet().Account)
		case "r":
			replayState := conductor.GetCurrentStateMap().Replay
			fmt.Printf("Latest event from current wallet: %s\n", replayState[actors.MyWallet().Account])
			hash, err := replayState.StateHash()
			if err != nil {
				actors.LogCLI(err.Error(), 1)
				break
			}
			fmt.Printf("Replay state hash: %s\n", hash)
		case "t":
			tip, ok := chain.Tip()
			if ok {
				fmt.Printf("Tip: %d %s\nMedian Time: %s\n", tip.Height, tip.Hash, tip.MedianTime)
			}
			fmt.Printf("Clock: %d\n", chain.Now())
		case "c":
			fmt.Println("CURRENT CONFIG")
			for k, v := range actors.MakeOrGetConfig().AllSettings() {
				fmt.Printf("\nKey: %s; Value: %v\n", k, v)
			}
		case "i":
			processInbox(conductor, actors.MakeOrGetConfig().GetString("inbox"))
		case "d":
			spew.Dump(conductor.GetCurrentStateMap())
		}
	}
}

// knownBoards lists the boards handled since startup plus the board of every genesis mint that exists.
func knownBoards(engine *bounties.Engine, conductor *eventconductor.Conductor) []library.Account {
	known := maps.Clone(conductor.GetCurrentStateMap().Boards)
	accounts, err := actors.GenesisAccounts(actors.MakeOrGetConfig())
	if err != nil {
		actors.LogCLI(err.Error(), 1)
	}
	for _, a := range accounts {
		address, _, err := bounties.BoardAddress(engine.ProgramID(), a.Mint)
		if err != nil {
			continue
		}
		if _, exists := known[address]; exists {
			continue
		}
		if m, err := engine.GetMapped(address); err == nil {
			known[address] = m
		}
	}
	boards := maps.Keys(known)
	sort.Strings(boards)
	return boards
}
