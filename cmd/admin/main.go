package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"pairchat/backend/internal/config"
	"pairchat/backend/internal/friends"
	"pairchat/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func usage() {
	fmt.Println("Usage: admin <command> [args]")
	fmt.Println("  friends <code>       list the friends of a code")
	fmt.Println("  befriend <a> <b>     record a friendship")
	fmt.Println("  unfriend <a> <b>     remove a friendship")
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open friend store")
	}
	defer store.Close()
	ledger := friends.NewLedger(store)

	if err := run(ctx, ledger, os.Args[1:]); err != nil {
		log.Error().Err(err).Msg("admin command failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, ledger *friends.Ledger, args []string) error {
	switch args[0] {
	case "friends":
		if len(args) != 2 {
			return fmt.Errorf("usage: admin friends <code>")
		}
		list, err := ledger.ListFriends(ctx, args[1])
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Printf("%s has no friends recorded.\n", args[1])
			return nil
		}
		for _, code := range list {
			fmt.Println(code)
		}
	case "befriend":
		if len(args) != 3 {
			return fmt.Errorf("usage: admin befriend <a> <b>")
		}
		if err := ledger.AddFriend(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("%s and %s are now friends.\n", args[1], args[2])
	case "unfriend":
		if len(args) != 3 {
			return fmt.Errorf("usage: admin unfriend <a> <b>")
		}
		if err := ledger.RemoveFriend(ctx, args[1], args[2]); err != nil {
			return err
		}
		fmt.Printf("%s and %s are no longer friends.\n", args[1], args[2])
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}
