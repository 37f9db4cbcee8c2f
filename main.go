// The main package for the storefront-insights executable.
package main

import (
	"github.com/JakeFAU/storefront-insights/cmd"
)

func main() {
	cmd.Execute()
}
