package kv

import (
	"fmt"
	"strconv"

	"github.com/ValentinKolb/kvmsg/cmd/util"
	"github.com/ValentinKolb/kvmsg/rpc/messages"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value and version of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, version, err := rpcStore.Get(cmd.Context(), []byte(key))
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, version=%d, value=%s\n", key, version, value)
			return nil
		},
	}
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			expire, err := cmd.Flags().GetInt32("expire")
			if err != nil {
				return err
			}
			version, err := rpcStore.Set(cmd.Context(), []byte(args[0]), []byte(args[1]), expire)
			if err != nil {
				return err
			}
			fmt.Printf("set successfully, version=%d\n", version)
			return nil
		},
	}
	casCmd = &cobra.Command{
		Use:   "cas [key] [value] [version]",
		Short: "Sets the value for a key if its version matches (0 = key must not exist)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			expected, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("version must be a number: %w", err)
			}
			applied, version, err := rpcStore.CompareAndSet(cmd.Context(), []byte(args[0]), []byte(args[1]), expected)
			if err != nil {
				return err
			}
			fmt.Printf("applied=%t, version=%d\n", applied, version)
			return nil
		},
	}
	versionCmd = &cobra.Command{
		Use:   "version [key]",
		Short: "Reads the version of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := rpcStore.GetVersion(cmd.Context(), []byte(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, version=%d\n", args[0], version)
			return nil
		},
	}
	listenCmd = &cobra.Command{
		Use:   "listen [key] [version]",
		Short: "Waits until the version of a key exceeds the given one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			awaited, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("version must be a number: %w", err)
			}
			value, version, err := rpcStore.Listen(cmd.Context(), []byte(args[0]), awaited, viper.GetDuration("listen-timeout"))
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, version=%d, value=%s\n", args[0], version, value)
			return nil
		},
	}
	pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Measures the round trip to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			count, err := cmd.Flags().GetInt("count")
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				rtt, err := rpcStore.Ping(cmd.Context(), []byte(strconv.Itoa(i)))
				if err != nil {
					return err
				}
				fmt.Printf("seq=%d time=%s\n", i, rtt)
			}
			return nil
		},
	}
)

func init() {
	setCmd.Flags().Int32("expire", messages.ExpireNone, util.WrapString("Lifetime of the value in seconds (0 = no expiry)"))
	listenCmd.Flags().Duration("listen-timeout", messages.DefaultListenTimeout, util.WrapString("How long the server waits for a change"))
	pingCmd.Flags().Int("count", 1, util.WrapString("Number of pings to send"))
}
