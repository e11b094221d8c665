package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvmsg/rpc/common"
	"github.com/ValentinKolb/kvmsg/rpc/serializer"
	"github.com/ValentinKolb/kvmsg/rpc/transport"
	"github.com/ValentinKolb/kvmsg/rpc/transport/memory"
	"github.com/ValentinKolb/kvmsg/rpc/transport/tcp"
	"github.com/ValentinKolb/kvmsg/rpc/transport/udp"
	"github.com/ValentinKolb/kvmsg/rpc/transport/unix"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. KVMSG_SEND_RETRY_MAX)
	EnvPrefix = "kvmsg"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and lets environment variables override flags
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// --------------------------------------------------------------------------
// Shared flags
// --------------------------------------------------------------------------

// SetupContextFlags adds the messaging context tunables to a command
func SetupContextFlags(cmd *cobra.Command) {
	d := common.DefaultContextConfig()

	key := "request-timeout"
	cmd.PersistentFlags().Duration(key, d.RequestTimeout, WrapString("How long an inbound request may stay unanswered before the requester receives a timeout"))

	key = "send-retry-max"
	cmd.PersistentFlags().Int(key, d.SendRetryMax, WrapString("How often a frame is offered again while the channel reports backpressure"))

	key = "max-requests"
	cmd.PersistentFlags().Int(key, d.MaxRequestCount, WrapString("Maximum number of inbound requests in flight. When full, a random request is evicted and answered with a timeout"))

	key = "transport"
	cmd.PersistentFlags().String(key, "udp", WrapString("Network channel to use (udp, tcp, memory)"))

	key = "ipc-dir"
	cmd.PersistentFlags().String(key, "", WrapString("Directory for unix datagram sockets used between processes on the same host (empty disables it)"))

	key = "serializer"
	cmd.PersistentFlags().String(key, "proto", WrapString("Payload serializer to use (proto, cbor, json, gob)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("Level at which logs will be output (debug, info, warn, error)"))
}

// GetContextConfig reads the context tunables from viper
func GetContextConfig() common.ContextConfig {
	return common.ContextConfig{
		RequestTimeout:  viper.GetDuration("request-timeout"),
		SendRetryMax:    viper.GetInt("send-retry-max"),
		MaxRequestCount: viper.GetInt("max-requests"),
	}.WithDefaults()
}

// GetSerializer creates the serializer selected by the serializer flag
func GetSerializer() (serializer.IPayloadSerializer, error) {
	return serializer.ByName(viper.GetString("serializer"))
}

// GetChannels creates the channel factories selected by the transport and ipc-dir flags
func GetChannels() (transport.Channels, error) {
	var channels transport.Channels

	switch name := viper.GetString("transport"); name {
	case "udp", "":
		channels.Network = udp.NewChannelFactory()
	case "tcp":
		channels.Network = tcp.NewChannelFactory(tcp.DefaultConfig())
	case "memory":
		channels = memory.NewHub().Channels()
	default:
		return transport.Channels{}, fmt.Errorf("invalid transport %s (expected one of: udp, tcp, memory)", name)
	}

	if dir := viper.GetString("ipc-dir"); dir != "" {
		channels.IPC = unix.NewChannelFactory(dir)
	}
	return channels, nil
}
