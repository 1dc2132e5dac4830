package main

import "github.com/KevinKickass/plcmap/cmd/plcmap/cmd"

func main() {
	cmd.Execute()
}
