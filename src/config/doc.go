// Package config defines the configuration for a mend node.
//
// Regardless of how mend is started, directly from Go code or as a standalone
// process from the command line, it uses the Config object defined in this
// package to store and forward configuration options. On top of these
// configuration options, mend relies on a data directory, defined by
// Config.DataDir, where it expects to find a few additional files:
//
//  peers.json // a JSON file containing the fixed list of peers.
//  badger_db  // (optional) the Badger database holding the coin vault.
package config
