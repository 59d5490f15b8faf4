package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoka-shop/storefront/internal/config"
	"github.com/hoka-shop/storefront/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌┬┐┌─┐┬─┐┌─┐┌─┐┬─┐┌─┐┌┐┌┌┬┐
  └─┐ │ │ │├┬┘├┤ ├┤ ├┬┘│ ││││ │
  └─┘ ┴ └─┘┴└─└─┘└  ┴└─└─┘┘└┘ ┴
`

// globals holds flags shared by every command.
type globals struct {
	configPath string
	session    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		reportError(os.Stderr, err, isTerminal(os.Stderr))
		os.Exit(1)
	}
}

// reportError prints err to w: the full colored report on a terminal, one
// plain line otherwise.
func reportError(w io.Writer, err error, tty bool) {
	errors.SetColors(tty)
	if errors.Code(err) == "" {
		if tty {
			fmt.Fprintf(w, "\033[31mError:\033[0m %s\n", err)
		} else {
			fmt.Fprintf(w, "Error: %s\n", err)
		}
		return
	}
	se := errors.FromError(err, "")
	if tty {
		fmt.Fprintln(w, se.Format())
		return
	}
	fmt.Fprintf(w, "Error: %s\n", se.FormatCompact())
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:   "storefront",
		Short: "Cart, dark-mode and toast state for the Hoka storefront",
		Long: `storefront serves the storefront's visitor state over HTTP and
manages it from the command line.

  • Shopping cart persisted to cookies, files, Redis or S3
  • Dark-mode preference with live theme events
  • Toast notifications pushed over WebSocket`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to storefront.json or storefront.yaml")
	rootCmd.PersistentFlags().StringVar(&g.session, "session", "local", "Session whose state the command operates on")

	rootCmd.AddCommand(
		serveCmd(g),
		cartCmd(g),
		darkModeCmd(g),
		toastCmd(),
		configCmd(g),
		versionCmd(),
	)

	return rootCmd
}

// loadConfig reads the file named by --config, or storefront.json /
// storefront.yaml in the working directory, falling back to defaults.
func (g *globals) loadConfig() (*config.Config, error) {
	if g.configPath != "" {
		return config.LoadFile(g.configPath)
	}
	cfg, err := config.Load(".")
	if errors.Code(err) == "S101" {
		return config.New(), nil
	}
	return cfg, err
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
