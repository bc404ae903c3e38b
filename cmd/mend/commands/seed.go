package commands

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path"

	"github.com/mendnet/mend/src/vault"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	denominations []int
	serials       uint32
	deedFile      string
)

// NewSeedCmd produces a SeedCmd which mints a fresh vault database
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "seed",
		Short:   "Mint a vault database",
		PreRunE: loadSeedConfig,
		RunE:    seed,
	}

	AddSeedFlags(cmd)

	return cmd
}

//AddSeedFlags adds flags to the seed command
func AddSeedFlags(cmd *cobra.Command) {
	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("db", _config.DatabaseDir, "Database directory")
	cmd.Flags().IntP("index", "i", _config.Index, "Index of this node in peers.json")
	cmd.Flags().IntSliceVar(&denominations, "denominations", []int{1, 5, 25, 100, 250}, "Denominations to mint")
	cmd.Flags().Uint32Var(&serials, "serials", 1000, "Serial numbers to mint per denomination")
	cmd.Flags().StringVar(&deedFile, "out", "", "File for the deed (default [datadir]/deed.json)")
}

func loadSeedConfig(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	_config.SetDataDir(_config.DataDir)

	return nil
}

func seed(cmd *cobra.Command, args []string) error {
	if deedFile == "" {
		deedFile = _config.DeedFile()
	}

	if _, err := os.Stat(deedFile); err == nil {
		return fmt.Errorf("A deed already lives under: %s", path.Dir(deedFile))
	}

	dens := make([]int8, len(denominations))
	for i, d := range denominations {
		if d < 1 || d > 127 {
			return fmt.Errorf("denomination %d out of range", d)
		}
		dens[i] = int8(d)
	}

	if err := os.MkdirAll(_config.DataDir, 0700); err != nil {
		return fmt.Errorf("Creating data directory: %s", err)
	}

	store, err := vault.NewBadgerStore(_config.DatabaseDir)
	if err != nil {
		return err
	}

	coins, err := vault.Mint(store, dens, serials)
	if err != nil {
		store.Close()
		return err
	}

	if err := store.Close(); err != nil {
		return err
	}

	deed := vault.Deed{
		NodeIndex: uint8(_config.Index),
		Coins:     coins,
	}

	b, err := json.MarshalIndent(deed, "", "  ")
	if err != nil {
		return err
	}

	if err := ioutil.WriteFile(deedFile, b, 0600); err != nil {
		return fmt.Errorf("Writing deed: %s", err)
	}

	fmt.Printf("Minted %d coins into: %s\n", len(coins), _config.DatabaseDir)
	fmt.Printf("Your deed has been saved to: %s\n", deedFile)

	return nil
}
