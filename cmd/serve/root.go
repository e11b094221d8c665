package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cmdUtil "github.com/ValentinKolb/kvmsg/cmd/util"
	"github.com/ValentinKolb/kvmsg/lib/store/lstore"
	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/server"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start a kvmsg server",
		Long:    `Start a kvmsg server backed by an in-memory versioned store. The configuration can be set via command line flags or environment variables. The format of the environment variables is KVMSG_<flag> (e.g. KVMSG_REQUEST_TIMEOUT=30s)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(cmdUtil.InitConfig)

	cmdUtil.SetupContextFlags(ServeCmd)

	key := "address"
	ServeCmd.PersistentFlags().String(key, "127.0.0.1:7000", cmdUtil.WrapString("The address the server listens on and announces as sender (ip:port)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("HTTP address serving the prometheus metrics under /metrics (e.g. localhost:9100, empty disables it)"))

	key = "gc-interval"
	ServeCmd.PersistentFlags().Duration(key, lstore.DefaultGCInterval, cmdUtil.WrapString("How often expired keys are removed from the store"))
}

// processConfig reads the flags and environment variables into the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := cmdUtil.BindCommandFlags(cmd); err != nil {
		return err
	}

	serveCmdConfig.Context = cmdUtil.GetContextConfig()
	serveCmdConfig.Endpoint = viper.GetString("address")
	serveCmdConfig.Transport = viper.GetString("transport")
	serveCmdConfig.IPCDir = viper.GetString("ipc-dir")
	serveCmdConfig.Serializer = viper.GetString("serializer")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if _, err := common.ParseAddress(serveCmdConfig.Endpoint); err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the server and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}
	channels, err := cmdUtil.GetChannels()
	if err != nil {
		return err
	}

	kv := lstore.NewLocalStore(&lstore.Options{GCInterval: viper.GetDuration("gc-interval")})
	srv, err := server.NewRPCServer(*serveCmdConfig, channels, s, kv)
	if err != nil {
		_ = kv.Close()
		_ = channels.Close()
		return err
	}

	fmt.Print(serveCmdConfig.String())
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *multierror.Error
	if err := srv.Serve(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := channels.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
