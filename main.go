package main

import (
	"os"

	"github.com/verifydesk/cli/cmd"
	"github.com/verifydesk/cli/internal/format"
	"github.com/verifydesk/cli/internal/utils"
)

func main() {
	if err := cmd.Execute(); err != nil {
		format.PrintError("%v", err)
		if utils.IsAuthError(err) {
			format.PrintInfo("run 'verifydesk auth login' to sign in again")
		}
		os.Exit(1)
	}
}
