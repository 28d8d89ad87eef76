// The main package for the inat-harvester executable.
package main

import (
	"os"

	"github.com/JakeFAU/inat-harvester/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
