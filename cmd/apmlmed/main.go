// Command apmlmed runs an 802.11 access point MLME on a Linux radio and
// relays its management decisions to an external SME.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
