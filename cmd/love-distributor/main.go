package main

import "github.com/oshokin/love-distributor/cmd/love-distributor/cmd"

func main() {
	cmd.Execute()
}
