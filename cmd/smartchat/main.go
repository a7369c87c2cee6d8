package main

import "github.com/devendrajoshi/smartchat/cmd/smartchat/cmd"

func main() {
	cmd.Execute()
}
