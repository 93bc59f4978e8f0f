package main

import (
	_ "github.com/viant/scy/kms/blowfish"
	"github.com/viant/session/cli"
	"log"
	"os"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
