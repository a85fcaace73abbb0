//go:build linux

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// multiFlag collects repeated string flag values.
type multiFlag []string

// String implements flag.Value.
func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

// Set implements flag.Value.
func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

// options is the parsed command line: the watch targets, the command to run
// on each event, and the global flags.
type options struct {
	files       []string
	dirs        []string
	command     string
	configPath  string
	history     int
	showVersion bool
}

// parseArgs parses and validates the command line. Each -file must name a
// regular file and each -dir a directory; a violation fails the whole
// invocation. When neither is given, the current directory is watched.
// Everything after the flags forms the command string.
func parseArgs(args []string) (*options, error) {
	var files, dirs multiFlag

	fs := flag.NewFlagSet("autorun", flag.ContinueOnError)
	fs.Var(&files, "file", "file whose events trigger the command (repeatable)")
	fs.Var(&files, "f", "shorthand for -file")
	fs.Var(&dirs, "dir", "directory tree whose events trigger the command (repeatable)")
	fs.Var(&dirs, "d", "shorthand for -dir")
	configPath := fs.String("config", "", "path to configuration file")
	history := fs.Int("history", 0, "print the last N journal entries and exit")
	showVersion := fs.Bool("version", false, "show version information")
	fs.Usage = func() { printUsage(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for _, f := range files {
		if err := checkRegularFile(f); err != nil {
			return nil, err
		}
	}
	for _, d := range dirs {
		if err := checkDirectory(d); err != nil {
			return nil, err
		}
	}

	if len(files) == 0 && len(dirs) == 0 {
		dirs = multiFlag{"."}
	}

	return &options{
		files:       files,
		dirs:        dirs,
		command:     strings.Join(fs.Args(), " "),
		configPath:  *configPath,
		history:     *history,
		showVersion: *showVersion,
	}, nil
}

// checkRegularFile fails unless path names a regular file.
func checkRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a file", path)
	}
	return nil
}

// checkDirectory fails unless path names a directory.
func checkDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// printUsage writes the usage text.
func printUsage(w io.Writer) {
	fmt.Fprintf(w, `autorun [flags] <cmd>

    -file|-f     name of a file whose events will trigger <cmd> (repeatable)
    -dir|-d      all events on files and directories inside this tree will
                 trigger <cmd>; new subdirectories are watched as they appear
                 (repeatable; autorun watches . by default)
    -config      path to configuration file
    -history N   print the last N trigger journal entries and exit
    -version     print the current version
    -h           display this message
    <cmd>        the command that will be run when an event is detected
`)
}
