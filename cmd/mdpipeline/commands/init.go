package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/mdpipeline/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory for the generated config file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	path := root.Config
	if i.Output != "" {
		path = filepath.Join(i.Output, DefaultConfigFile)
	}
	if path == "" {
		path = DefaultConfigFile
	}
	return RunInit(path, i.Force)
}

// RunInit writes the default configuration to configPath.
func RunInit(configPath string, force bool) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}
	fmt.Println("Initialized successfully")
	return nil
}
