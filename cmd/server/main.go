package main

import (
	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	cobra.CheckErr(newCmd(&options{}).Execute())
}
