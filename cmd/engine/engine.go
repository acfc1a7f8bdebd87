package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"bountyboard/engine/actors"
	"bountyboard/engine/library"
	"bountyboard/messaging/eventconductor"
	"bountyboard/messaging/relays"
	"bountyboard/state/blocks"
	"bountyboard/state/bounties"
	"bountyboard/state/ledger"
	"bountyboard/state/replay"
)

func main() {
	// A .env file is optional, anything in it is visible to viper as BOUNTYBOARD_* variables.
	if err := godotenv.Load(); err != nil {
		library.LogCLI(err.Error(), 4)
	}
	conf := viper.New()
	// Now we initialise this configuration with basic settings that are required on startup.
	actors.InitConfig(conf)
	// make the config accessible globally
	actors.SetConfig(conf)
	terminateChan := make(chan struct{})
	actors.SetTerminateChan(terminateChan)

	store, guard, err := openLedger(conf)
	if err != nil {
		library.LogCLI(err.Error(), 0)
		os.Exit(1)
	}
	chain := blocks.NewChain(fallbackClock(conf), conf.GetStringSlice("blockOracles")...)
	engine := bounties.NewEngine(store, chain)
	conductor := eventconductor.New(engine, chain, guard)
	if urls := conf.GetStringSlice("relays"); len(urls) > 0 {
		events := relays.FetchKinds(context.Background(), urls, eventKinds, 10*time.Second)
		for _, e := range events {
			conductor.Push(e)
		}
		library.LogCLI(fmt.Sprintf("Fetched %d events from %d relays", len(events), len(urls)), 3)
	}
	processInbox(conductor, conf.GetString("inbox"))

	actors.GetWaitGroup().Add(1)
	go func() {
		<-actors.GetTerminateChan()
		library.LogCLI("Bounty Mind has shut down", 4)
		actors.GetWaitGroup().Done()
	}()
	interrupt := make(chan struct{})
	go cliListener(interrupt, engine, conductor, chain)
	<-interrupt
	actors.Shutdown()
	fmt.Println("Bye")
}

var eventKinds = []int{
	blocks.Kind,
	bounties.KindInitializeBoard,
	bounties.KindCreateBounty,
	bounties.KindClaimBounty,
	bounties.KindProcessPayout,
}

func openStore(conf *viper.Viper) (ledger.Store, error) {
	switch conf.GetString("store") {
	case "memory":
		return ledger.NewMemoryStore(), nil
	case "flatfile":
		return ledger.OpenFlatFileStore(actors.DataDir())
	case "postgres":
		return ledger.OpenPostgres(conf.GetString("postgresDSN"))
	default:
		return nil, fmt.Errorf("%w: unknown store %q", library.ErrInvalidAccountConfig, conf.GetString("store"))
	}
}

// openLedger opens the configured store with its replay guard. A memory store starts empty on every
// run, so its guard is not persisted and the genesis accounts are seeded each time.
func openLedger(conf *viper.Viper) (ledger.Store, *replay.Guard, error) {
	store, err := openStore(conf)
	if err != nil {
		return nil, nil, err
	}
	durable := conf.GetString("store") != "memory"
	if !durable || conf.GetBool("firstRun") {
		if err = seedGenesisAccounts(store, conf); err != nil {
			return nil, nil, err
		}
	}
	if !durable {
		return store, replay.NewGuard(), nil
	}
	if conf.GetBool("firstRun") {
		conf.Set("firstRun", false)
		if err = conf.WriteConfig(); err != nil {
			library.LogCLI(err.Error(), 1)
		}
	}
	guard, err := replay.OpenGuard(actors.DataDir())
	if err != nil {
		return nil, nil, err
	}
	return store, guard, nil
}

// fallbackClock is used until the first block header arrives. With clock set to "blocks" there is
// no fallback and bounty deadlines are measured against time zero until then.
func fallbackClock(conf *viper.Viper) library.Clock {
	if conf.GetString("clock") == "blocks" {
		return nil
	}
	return library.SystemClock{}
}

func seedGenesisAccounts(store ledger.Store, conf *viper.Viper) error {
	accounts, err := actors.GenesisAccounts(conf)
	if err != nil {
		return err
	}
	err = store.Update(func(txn *ledger.Txn) error {
		for _, a := range accounts {
			if _, err := ledger.InitTokenAccount(txn, a.Address, a.Owner, a.Mint); err != nil {
				return fmt.Errorf("genesis account %s: %w", a.Address, err)
			}
			if err := ledger.Credit(txn, a.Address, a.Balance); err != nil {
				return fmt.Errorf("genesis account %s: %w", a.Address, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	library.LogCLI(fmt.Sprintf("Seeded %d genesis accounts", len(accounts)), 3)
	return nil
}

func processInbox(conductor *eventconductor.Conductor, path string) {
	n, err := conductor.LoadInbox(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			library.LogCLI(fmt.Sprintf("No inbox at %s", path), 4)
			return
		}
		library.LogCLI(err.Error(), 1)
	}
	handled, failed := conductor.Drain()
	library.LogCLI(fmt.Sprintf("Inbox %s: read %d events, %d changed state, %d failed", path, n, handled, failed), 3)
}
