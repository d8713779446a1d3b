package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/ice/cli"
	"github.com/twitter/ice/common/errors"
	"github.com/twitter/ice/common/log/hooks"
)

// CLI binary for ice scope chains
//	Supported commands: (see "-h" for all options)
//		validate [chain-config]
//		graph [chain-config] [--topo]
//		demo [chain-config] [--requests N] [--stats]
//		serve [chain-config] [--addr host:port] [--max_conns N]
//	Global flags:
//		--env_file [file of KEY=value defaults, .env by default]
//		--log_level [<error|info|debug> level and above should be logged]
//	A chain-config is a .json/.yaml/.yml file name or literal JSON, defaulting to $ICE_CHAIN_CONFIG.

func main() {
	log.AddHook(hooks.NewContextHook())

	cl := cli.NewSimpleCLIClient(os.Stdout)
	if err := cl.Exec(); err != nil {
		log.Error("Error running icectl: ", err)
		os.Exit(int(errors.ExitCodeOf(err)))
	}
}
