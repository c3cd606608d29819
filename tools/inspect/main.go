package main

import (
	"chat-desk/domain"
	"chat-desk/persistence"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" required:"true"`
	Prefix         string `envconfig:"INSPECT_PREFIX" default:"chat-desk:"`
}

func main() {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatal("Config error: ", err)
	}
	dbPath := flag.String("db", config.BadgerFilepath, "Path to badger DB")
	prefix := flag.String("prefix", config.Prefix, "Prefix to scan")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if err = dump(db, *prefix, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

// dump prints one row per key under prefix with a short summary of the snapshot.
func dump(db *badger.DB, prefix string, out io.Writer) error {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Key", "Version", "Bytes", "Summary"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")

	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				table.Append([]string{
					key,
					strconv.FormatUint(item.Version(), 10),
					strconv.Itoa(len(v)),
					summarize(key, v),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func summarize(key string, value []byte) string {
	switch key {
	case persistence.SessionKey:
		var snapshot domain.SessionSnapshot
		if err := json.Unmarshal(value, &snapshot); err != nil {
			return "corrupt: " + err.Error()
		}
		if snapshot.User == nil {
			return "signed out"
		}
		return fmt.Sprintf("user %s %s (authenticated=%t)",
			snapshot.User.CountryCode, domain.FormatPhone(snapshot.User.Phone), snapshot.User.IsAuthenticated)
	case persistence.ConversationKey:
		var snapshot domain.ConversationSnapshot
		if err := json.Unmarshal(value, &snapshot); err != nil {
			return "corrupt: " + err.Error()
		}
		messages := 0
		for _, log := range snapshot.MessagesByChatroom {
			messages += len(log)
		}
		return fmt.Sprintf("%d chatrooms, %d messages", len(snapshot.Chatrooms), messages)
	default:
		return "-"
	}
}
