// # cmd/scopelens/main.go
package main

import (
	"os"

	"scopelens/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
