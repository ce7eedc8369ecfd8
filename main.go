package main

import (
	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"

	"github.com/purviewops/sit-compare/pkg/cli"
)

func main() {
	log.SetHandler(clihandler.Default)
	cli.Execute()
}
