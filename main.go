package main

import "github.com/begrat/storefront-backend/cmd"

func main() {
	cmd.Init()
}
