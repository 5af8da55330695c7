package main

import "github.com/streamnest/watchparty/cmd/watchparty/cmd"

func main() {
	cmd.Execute()
}
