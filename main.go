package main

import "github.com/cmmoran/proxytype/cmd"

func main() {
	cmd.Execute()
}
