// Commande trainer : entraîne et interroge hors ligne l'estimateur CO2 et le
// classifieur de notes utilisés par l'API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
