// Command inspect dumps a chatcore pebble snapshot as JSON for offline
// debugging. The engine must not be running against the same path.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"chatcore/pkg/logger"
	"chatcore/pkg/persist"
)

func main() {
	var (
		path = flag.String("db", "./.chatcore", "pebble snapshot path")
		conv = flag.String("conversation", "", "limit output to one conversation id")
	)
	flag.Parse()
	logger.InitWithLevel("error")

	a, err := persist.Open(*path, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *path, err)
		os.Exit(1)
	}
	defer a.Close()

	restored, err := a.LoadConversations()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, r := range restored {
		if *conv != "" && r.Meta.ID != *conv {
			continue
		}
		if err := enc.Encode(r); err != nil {
			fmt.Fprintf(os.Stderr, "encode %s: %v\n", r.Meta.ID, err)
			os.Exit(1)
		}
	}
}
