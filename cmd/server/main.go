package main

import "github.com/inscrevo/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
