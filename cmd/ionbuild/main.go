// ionbuild builds, watches and serves a www/ browser application.
package main

import (
	"os"

	"github.com/hupe1980/ionbuild/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
