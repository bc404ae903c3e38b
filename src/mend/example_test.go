package mend

import (
	"os"

	"github.com/mendnet/mend/src/config"
)

// This example shows how a node is configured and started. It expects a
// peers.json file in the data directory, and a vault database minted with the
// seed command.
func Example() {
	// Start from default configuration.
	mendConfig := config.NewDefaultConfig()

	// Load the vault from the badger database under the data directory.
	mendConfig.Store = true

	// Instantiate the engine.
	engine := NewMend(mendConfig)

	// Read in the configuration and initialise the node accordingly.
	if err := engine.Init(); err != nil {
		mendConfig.Logger().Error("Cannot initialize mend:", err)
		os.Exit(1)
	}

	// Run the node asynchronously.
	go engine.Run()

	// Stop the node politely upon returning.
	defer engine.Node.Shutdown()
}
