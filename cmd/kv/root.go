package kv

import (
	"strings"
	"time"

	"github.com/ValentinKolb/kvmsg/cmd/util"
	"github.com/ValentinKolb/kvmsg/rpc/client"
	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcStore *client.RPCStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:                "kv",
		Short:              "Perform key-value store operations",
		PersistentPreRunE:  setupKVClient,
		PersistentPostRunE: closeKVClient,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	util.SetupContextFlags(KeyValueCommands)

	key := "endpoints"
	KeyValueCommands.PersistentFlags().String(key, "127.0.0.1:7000", util.WrapString("Comma-separated list of servers (ip:port). Requests are balanced round robin"))

	key = "address"
	KeyValueCommands.PersistentFlags().String(key, "127.0.0.1:7001", util.WrapString("The local address responses are sent to (ip:port)"))

	key = "timeout"
	KeyValueCommands.PersistentFlags().Duration(key, client.DefaultTimeout, util.WrapString("How long to wait for the answer of a single request"))

	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(casCmd)
	KeyValueCommands.AddCommand(versionCmd)
	KeyValueCommands.AddCommand(listenCmd)
	KeyValueCommands.AddCommand(pingCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// getClientConfig reads the client configuration from viper
func getClientConfig() *common.ClientConfig {
	return &common.ClientConfig{
		Context:    util.GetContextConfig(),
		Address:    viper.GetString("address"),
		Endpoints:  strings.Split(viper.GetString("endpoints"), ","),
		Timeout:    viper.GetDuration("timeout"),
		Transport:  viper.GetString("transport"),
		IPCDir:     viper.GetString("ipc-dir"),
		Serializer: viper.GetString("serializer"),
	}
}

// setupKVClient initializes the RPC store client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}
	channels, err := util.GetChannels()
	if err != nil {
		return err
	}

	rpcStore, err = client.NewRPCStore(*getClientConfig(), channels, s)
	return err
}

// closeKVClient drains the client, waiting at most one request timeout
func closeKVClient(_ *cobra.Command, _ []string) error {
	if rpcStore == nil {
		return nil
	}
	start := time.Now()
	err := rpcStore.Close()
	client.Logger.Debugf("client closed after %s", time.Since(start))
	return err
}
