package main

import (
	"fmt"
	"os"
)

func main() {
	cli, kctx, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	InitConf(cli.Config)
	InitLog(cli.LogLevel)
	InitSafeExit()

	err = kctx.Run(SafeExitInst)
	SafeExitInst.Shutdown()
	if err != nil {
		log.Errorf("%s failed, details: %s", kctx.Command(), err)
		os.Exit(1)
	}
}
