// Command iocctl loads iockit module manifests, checks that every module
// resolves and serves the inspection API.
package main

import "github.com/kbukum/iockit/internal/cli"

func main() {
	cli.Execute()
}
