package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"bountyboard/engine/actors"
	"bountyboard/engine/helpers"
	"bountyboard/engine/library"
)

// blocks is the clock oracle. It follows the bitcoin tip and appends a signed header to the engine
// inbox whenever the height changes.
func main() {
	if err := godotenv.Load(); err != nil {
		library.LogCLI(err.Error(), 4)
	}
	conf := viper.New()
	//Now we initialise this configuration with basic settings that are required on startup.
	actors.InitConfig(conf)
	//make the config accessible globally
	actors.SetConfig(conf)
	conf.SetDefault("blockSource", "https://blockstream.info/api")
	fmt.Println("Current wallet: " + actors.MyWallet().Account)
	source := &blockSource{base: conf.GetString("blockSource")}
	var terminate = make(chan struct{})
	go listenForBlocks(source, conf.GetString("inbox"), terminate)
	go cliListener(terminate)
	<-terminate
}

func cliListener(interrupt chan struct{}) {
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
		case "q":
			close(interrupt)
			return
		}
	}
}

func listenForBlocks(source *blockSource, inbox string, terminate chan struct{}) {
	var currentHeight = checkAndSend(source, 0, inbox)
	for {
		select {
		case <-terminate:
			return
		case <-time.After(time.Second * 30):
			currentHeight = checkAndSend(source, currentHeight, inbox)
		}
	}
}

func checkAndSend(source *blockSource, currentHeight int64, inbox string) int64 {
	block, err := source.latest()
	if err != nil {
		actors.LogCLI(err, 3)
		return currentHeight
	}
	if block.Height <= currentHeight {
		return currentHeight
	}
	e, err := helpers.SignedHeader(actors.MyWallet(), block.Height, block.Id, block.Timestamp, block.Mediantime, block.Difficulty)
	if err != nil {
		actors.LogCLI(err, 1)
		return currentHeight
	}
	if err = appendToInbox(inbox, e); err != nil {
		actors.LogCLI(err, 1)
		return currentHeight
	}
	actors.LogCLI(fmt.Sprintf("Block %d %s, median time %d", block.Height, block.Id, block.Mediantime), 3)
	return block.Height
}

func appendToInbox(path string, e any) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(b, '\n'))
	return err
}
