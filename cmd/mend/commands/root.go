package commands

import (
	"github.com/mendnet/mend/src/config"
	"github.com/spf13/cobra"
)

var _config = config.NewDefaultConfig()

//RootCmd is the root command for mend
var RootCmd = &cobra.Command{
	Use:              "mend",
	Short:            "coin vault with networked recovery",
	TraverseChildren: true,
}
