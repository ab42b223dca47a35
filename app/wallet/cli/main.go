// This program provides a wallet that signs transactions locally and
// submits them to a node.
package main

import "github.com/ardanlabs/powchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
