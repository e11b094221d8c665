package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/ValentinKolb/kvmsg/cmd/kv"
	"github.com/ValentinKolb/kvmsg/cmd/serve"
	"github.com/ValentinKolb/kvmsg/rpc/frame"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "kvmsg",
		Short: "request/response messaging for a key-value store",
		Long: fmt.Sprintf(`kvmsg (v%s)

A key-value store served over a connectionless request/response
messaging layer. Requests are correlated by id, answered at most
once and time out when no answer arrives.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of kvmsg",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("kvmsg v%s (wire protocol %#04x, %s %s/%s)\n",
				Version, frame.ProtocolVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
)

func init() {
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
