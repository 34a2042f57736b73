package cli

import (
	"flag"
	"io"
)

const versionString = "1.0.0"
const defaultConfigPath = "./scopelens.toml"

type cliOptions struct {
	configPath string
	format     string
	loader     string
	output     string
	watch      bool
	ui         bool
	serve      bool
	verbose    bool
	version    bool
	args       []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("scopelens", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.StringVar(&opts.format, "format", "", "Output format: html, terminal, plain or json (overrides highlight.format)")
	fs.StringVar(&opts.loader, "loader", "", "Input language: js, jsx, ts or tsx (overrides analysis.loader)")
	fs.StringVar(&opts.output, "out", "", "Write the report to this file instead of stdout")
	fs.BoolVar(&opts.watch, "watch", false, "Re-analyze files under the watch paths as they change")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode (implies -watch)")
	fs.BoolVar(&opts.serve, "serve", false, "Serve the HTTP analysis API")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
